package api

import (
	"context"
	"fmt"
	"net/http"

	"myriad-tipping-go/internal/models"
)

// UserWalletAddress resolves the destination wallet for tipping a user.
func (c *Client) UserWalletAddress(ctx context.Context, userID string) (*models.WalletDetail, error) {
	var detail models.WalletDetail
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%s/walletaddress", userID), nil, nil, &detail)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// CommentWalletAddress resolves the destination wallet for tipping the
// author of a comment.
func (c *Client) CommentWalletAddress(ctx context.Context, commentID string) (*models.WalletDetail, error) {
	var detail models.WalletDetail
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/comments/%s/walletaddress", commentID), nil, nil, &detail)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// PostWalletAddress resolves the destination wallet for tipping a post. For
// imported posts whose author has not claimed a Myriad account, the backend
// returns a people-typed detail without an on-chain address.
func (c *Client) PostWalletAddress(ctx context.Context, postID string) (*models.WalletDetail, error) {
	var detail models.WalletDetail
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%s/walletaddress", postID), nil, nil, &detail)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}
