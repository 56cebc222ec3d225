package tipping

import (
	"context"

	"myriad-tipping-go/internal/api"
	"myriad-tipping-go/internal/common"
	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/signer"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClaimParams describes a claim of previously escrowed tips. Fee is in
// display units of the network's native currency.
type ClaimParams struct {
	TipsBalance models.TipsBalanceInfo
	Currency    models.Currency
	Fee         decimal.Decimal

	OnEvent func(Event)
}

func (p ClaimParams) emit(event Event) {
	if p.OnEvent != nil {
		p.OnEvent(event)
	}
}

// ClaimReferences pays the fee-settlement transaction for escrowed tips and
// then asks the backend to release them to the claimed wallet.
func (o *Orchestrator) ClaimReferences(ctx context.Context, params ClaimParams) error {
	baseFee, err := common.ToBaseUnits(params.Fee, params.Currency.Decimals)
	if err != nil {
		return o.fail(SendTipParams{OnEvent: params.OnEvent}, "converting claim fee", err)
	}

	zap.L().Info("Starting claim-reference flow",
		zap.String("server_id", params.TipsBalance.ServerID),
		zap.String("reference_id", params.TipsBalance.ReferenceID),
		zap.String("fee", params.Fee.String()))

	signCtx, cancel := context.WithTimeout(ctx, o.signingTimeout)
	defer cancel()

	hash, err := o.provider.PayTransactionFee(signCtx, params.TipsBalance, baseFee,
		func(status signer.Status) {
			if status.SignerOpened {
				params.emit(Event{State: StateSigning})
			}
		})
	if err != nil {
		o.notifier.Notify(Notification{Variant: VariantError, Message: err.Error()})
		params.emit(Event{State: StateFailed, Err: err})
		return &TransportError{Op: "paying claim fee", Err: err}
	}
	if hash == "" {
		o.notifier.Notify(Notification{Variant: VariantWarning, Message: "Transaction signing cancelled"})
		params.emit(Event{State: StateCancelled})
		return ErrCancelled
	}

	params.emit(Event{State: StateSubmitting, Hash: hash})

	claimCtx, cancelClaim := context.WithTimeout(ctx, o.rpcTimeout)
	defer cancelClaim()
	err = o.backend.ClaimReferences(claimCtx, api.ClaimReferenceParams{
		TxFee:             common.DisplayAmount(baseFee, params.Currency.Decimals).String(),
		TippingContractID: params.TipsBalance.ServerID,
	})
	if err != nil {
		o.notifier.Notify(Notification{Variant: VariantError, Message: err.Error()})
		params.emit(Event{State: StateFailed, Err: err})
		return &TransportError{Op: "claiming references", Err: err}
	}

	params.emit(Event{State: StateRecorded, Hash: hash})
	o.notifier.Notify(Notification{Variant: VariantSuccess, Message: "Claiming Reference Success"})

	return nil
}
