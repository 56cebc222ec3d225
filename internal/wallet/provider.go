package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/signer"

	"github.com/shopspring/decimal"
)

// ErrSubscriptionUnsupported is returned by SubscribeBalance on chains
// without a push channel; callers fall back to on-demand loads.
var ErrSubscriptionUnsupported = errors.New("balance subscription not supported")

// FeeInfo is a chain fee or minimum-balance quote, in base units.
type FeeInfo struct {
	PartialFee decimal.Decimal
}

// Provider is the uniform adapter over one blockchain backend for the
// connected account. Amounts cross this boundary in base units only.
//
// SignTippingTransaction and PayTransactionFee return an empty hash, with a
// nil error, when the user declines the signing prompt. Chain and transport
// failures are returned as errors and are never retried here.
type Provider interface {
	// AccountID is the connected account's on-chain address.
	AccountID() string

	// EstimateFee queries the chain for the cost of the transfer.
	EstimateFee(ctx context.Context, detail *models.WalletDetail, currency models.Currency) (FeeInfo, error)

	// AssetMinBalance is the minimum balance an account must hold for the
	// asset (existential deposit semantics). Zero when the chain does not
	// track one for this asset.
	AssetMinBalance(ctx context.Context, currency models.Currency) (FeeInfo, error)

	// FreeBalance is the account's spendable balance for the currency.
	FreeBalance(ctx context.Context, currency models.Currency) (decimal.Decimal, error)

	// SubscribeBalance registers for balance-change pushes and invokes
	// onChange with the signed base-unit delta. The returned function
	// cancels the subscription.
	SubscribeBalance(ctx context.Context, currency models.Currency, onChange func(delta decimal.Decimal)) (func(), error)

	// SignTippingTransaction asks the signer for approval, submits the
	// transfer, and returns the transaction hash.
	SignTippingTransaction(ctx context.Context, detail *models.WalletDetail, amount decimal.Decimal, currency models.Currency, memo string, onStatus signer.StatusFunc) (string, error)

	// PayTransactionFee submits the separate fee-settlement transaction
	// required to claim previously escrowed tips.
	PayTransactionFee(ctx context.Context, info models.TipsBalanceInfo, amount decimal.Decimal, onStatus signer.StatusFunc) (string, error)

	Close() error
}

// NewProvider selects the adapter variant for the network's chain family.
func NewProvider(ctx context.Context, network models.Network, s signer.Signer, rpcTimeout time.Duration) (Provider, error) {
	if s == nil {
		return nil, fmt.Errorf("signer cannot be nil")
	}

	switch network.BlockchainPlatform {
	case models.PlatformSubstrate:
		return newSubstrateProvider(ctx, network, s, rpcTimeout)
	case models.PlatformNear:
		return newNearProvider(network, s, rpcTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported blockchain platform %q", network.BlockchainPlatform)
	}
}

func notifySignerOpened(onStatus signer.StatusFunc) {
	if onStatus != nil {
		onStatus(signer.Status{SignerOpened: true})
	}
}
