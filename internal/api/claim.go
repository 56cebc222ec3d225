package api

import (
	"context"
	"net/http"
)

// ClaimReferenceParams settles escrowed tips after the fee-payment
// transaction has gone through. TxFee is in display units.
type ClaimReferenceParams struct {
	TxFee             string `json:"txFee"`
	TippingContractID string `json:"tippingContractId,omitempty"`
}

// ClaimReferences asks the backend to move escrowed tips to the caller's
// claimed wallet.
func (c *Client) ClaimReferences(ctx context.Context, params ClaimReferenceParams) error {
	return c.do(ctx, http.MethodPatch, "/claim-references", nil, params, nil)
}
