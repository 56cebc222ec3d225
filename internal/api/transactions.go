package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"myriad-tipping-go/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultPageLimit matches the backend's pagination default.
const DefaultPageLimit = 10

// StoreTransactionParams is the body of POST /transactions. Amount is in
// display units, already rounded for record-keeping.
type StoreTransactionParams struct {
	Hash          string               `json:"hash"`
	Amount        decimal.Decimal      `json:"amount"`
	From          string               `json:"from"`
	To            string               `json:"to"`
	CurrencyID    string               `json:"currencyId"`
	ReferenceType models.ReferenceType `json:"type,omitempty"`
	ReferenceID   string               `json:"referenceId,omitempty"`
}

// StoreTransaction records a completed transfer on the backend ledger.
func (c *Client) StoreTransaction(ctx context.Context, params StoreTransactionParams) (*models.Transaction, error) {
	var tx models.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, params, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// TransactionQuery filters and pages a transaction history listing.
type TransactionQuery struct {
	Page          int
	Limit         int
	ReferenceID   string
	ReferenceType models.ReferenceType
	CurrencyID    string
	Sort          models.TransactionSort
}

func (q TransactionQuery) values() url.Values {
	values := url.Values{}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	values.Set("pageNumber", strconv.Itoa(page))
	values.Set("pageLimit", strconv.Itoa(limit))

	if q.ReferenceID != "" {
		values.Set("referenceId", q.ReferenceID)
	}
	if q.ReferenceType != "" {
		values.Set("referenceType", string(q.ReferenceType))
	}
	if q.CurrencyID != "" {
		values.Set("currencyId", q.CurrencyID)
	}

	switch q.Sort {
	case models.SortHighest:
		values.Set("filter[order]", "amount DESC")
	default:
		values.Set("filter[order]", "createdAt DESC")
	}

	return values
}

// ListTransactions fetches one page of transaction history.
func (c *Client) ListTransactions(ctx context.Context, query TransactionQuery) (*models.TransactionList, error) {
	var list models.TransactionList
	if err := c.do(ctx, http.MethodGet, "/transactions", query.values(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}
