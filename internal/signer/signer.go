package signer

import (
	"context"

	"myriad-tipping-go/internal/models"

	"github.com/shopspring/decimal"
)

// Status is signing-progress information pushed to the caller. SignerOpened
// fires synchronously when the signing prompt is presented to the user.
type Status struct {
	SignerOpened bool
}

// StatusFunc receives signing-progress callbacks.
type StatusFunc func(Status)

// TransferRequest describes the transfer to encode and sign. Amount is in
// base units. CurrencyReferenceID is empty for the network's native token.
type TransferRequest struct {
	NetworkID           string          `json:"networkId"`
	To                  string          `json:"to"`
	Amount              decimal.Decimal `json:"amount"`
	CurrencyReferenceID string          `json:"currencyReferenceId,omitempty"`
	Memo                string          `json:"memo,omitempty"`
}

// ClaimFeeRequest describes the fee-settlement transaction for claiming
// escrowed tips.
type ClaimFeeRequest struct {
	NetworkID   string                 `json:"networkId"`
	TipsBalance models.TipsBalanceInfo `json:"tipsBalanceInfo"`
	Amount      decimal.Decimal        `json:"amount"`
}

// Signer is the boundary to the user's wallet. Implementations present the
// signing prompt; the chain providers never see key material.
//
// SignTransfer and SignClaimFee return the encoded signed transaction, or an
// empty string when the user declines to sign. Declining is not an error:
// the empty result is the single cancellation signal, mirrored all the way
// up the tipping flow.
type Signer interface {
	// Address is the on-chain address of the connected account.
	Address() string

	// BuildTransfer encodes an unsigned transfer for fee estimation.
	BuildTransfer(ctx context.Context, req TransferRequest) (string, error)

	// SignTransfer prompts the user and returns the signed transfer.
	SignTransfer(ctx context.Context, req TransferRequest) (string, error)

	// SignClaimFee prompts the user for the claim fee-settlement
	// transaction.
	SignClaimFee(ctx context.Context, req ClaimFeeRequest) (string, error)
}
