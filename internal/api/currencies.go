package api

import (
	"context"
	"net/http"
	"net/url"

	"myriad-tipping-go/internal/models"
)

// Currencies fetches the full currency reference data set.
func (c *Client) Currencies(ctx context.Context) ([]models.Currency, error) {
	var list struct {
		Data []models.Currency `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/currencies", nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// UserCurrencies fetches the currencies a user has enabled, in priority
// order.
func (c *Client) UserCurrencies(ctx context.Context, userID string) ([]models.Currency, error) {
	query := url.Values{}
	query.Set("userId", userID)
	query.Set("filter[order]", "priority ASC")

	var list struct {
		Data []models.Currency `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/user-currencies", query, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}
