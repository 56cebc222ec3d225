package tipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myriad-tipping-go/internal/api"
	"myriad-tipping-go/internal/balance"
	"myriad-tipping-go/internal/common"
	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/resolver"
	"myriad-tipping-go/internal/signer"
	"myriad-tipping-go/internal/store"
	"myriad-tipping-go/internal/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Provider   wallet.Provider
	Backend    *api.Client
	Recipients *resolver.Resolver
	Balances   *balance.Resolver
	// Ledger is optional; without it the duplicate-hash guard is skipped.
	Ledger *store.Ledger
	// Notifier is optional.
	Notifier Notifier
	// SigningTimeout bounds the signer round trip; RPCTimeout bounds every
	// other suspending call.
	SigningTimeout time.Duration
	RPCTimeout     time.Duration
}

// Orchestrator drives a tip attempt from amount entry to the recorded
// backend transaction. Attempts are strictly sequential per instance;
// callers are expected to disable the send action while one is in flight.
type Orchestrator struct {
	provider   wallet.Provider
	backend    *api.Client
	recipients *resolver.Resolver
	balances   *balance.Resolver
	ledger     *store.Ledger
	notifier   Notifier

	signingTimeout time.Duration
	rpcTimeout     time.Duration
}

func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend client cannot be nil")
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	signingTimeout := cfg.SigningTimeout
	if signingTimeout <= 0 {
		signingTimeout = 2 * time.Minute
	}
	rpcTimeout := cfg.RPCTimeout
	if rpcTimeout <= 0 {
		rpcTimeout = 30 * time.Second
	}

	return &Orchestrator{
		provider:       cfg.Provider,
		backend:        cfg.Backend,
		recipients:     cfg.Recipients,
		balances:       cfg.Balances,
		ledger:         cfg.Ledger,
		notifier:       notifier,
		signingTimeout: signingTimeout,
		rpcTimeout:     rpcTimeout,
	}, nil
}

// SendTipParams describes one tip attempt. Amount is in display units.
type SendTipParams struct {
	Sender    models.Account
	Reference models.TipReference
	// WalletDetail may be pre-resolved; when nil it is looked up from the
	// reference.
	WalletDetail *models.WalletDetail
	Currency     models.Currency
	Amount       decimal.Decimal
	Memo         string

	// OnEvent observes lifecycle transitions in order. Optional.
	OnEvent func(Event)
	// OnSuccess runs after the transaction is recorded. Optional.
	OnSuccess func(models.Transaction)
}

func (p SendTipParams) emit(event Event) {
	if p.OnEvent != nil {
		p.OnEvent(event)
	}
}

// SendTip runs the full flow: resolve, estimate, check balance, sign,
// submit, record. Nothing is retried automatically; any failure returns the
// attempt to Idle from the caller's point of view.
func (o *Orchestrator) SendTip(ctx context.Context, params SendTipParams) (*models.Transaction, error) {
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("tip amount must be positive, got %s", params.Amount.String())
	}

	zap.L().Info("Starting tip attempt",
		zap.String("reference_type", string(params.Reference.Type)),
		zap.String("reference_id", params.Reference.ID),
		zap.String("currency", params.Currency.Symbol),
		zap.String("amount", params.Amount.String()))

	params.emit(Event{State: StateEstimating})

	detail, err := o.resolveRecipient(ctx, params)
	if err != nil {
		return nil, o.fail(params, "resolving recipient", err)
	}
	if !detail.Resolved() {
		// The author exists but has not linked a wallet. Distinct from an
		// error: the UI routes the user to the escrowed-tip flow instead.
		o.notifier.Confirm(ConfirmPrompt{
			Title:       "Tipping not available yet",
			Description: "This author has not linked a wallet. The tip can be escrowed until they claim their account.",
		})
		params.emit(Event{State: StateFailed, Err: ErrRecipientUnresolved})
		return nil, ErrRecipientUnresolved
	}

	fee, minBalance := o.estimate(ctx, detail, params.Currency)

	baseAmount, err := common.ToBaseUnits(params.Amount, params.Currency.Decimals)
	if err != nil {
		return nil, o.fail(params, "converting amount", err)
	}

	if err := o.checkBalance(ctx, params); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			params.emit(Event{State: StateFailed, Err: err})
			return nil, err
		}
		return nil, o.fail(params, "checking balance", err)
	}

	zap.L().Debug("Fee estimated",
		zap.String("partial_fee", fee.String()),
		zap.String("min_balance", minBalance.String()))

	// Signing. The signerOpened callback fires when the prompt is up.
	signCtx, cancelSign := context.WithTimeout(ctx, o.signingTimeout)
	defer cancelSign()

	hash, err := o.provider.SignTippingTransaction(signCtx, detail, baseAmount, params.Currency, params.Memo,
		func(status signer.Status) {
			if status.SignerOpened {
				params.emit(Event{State: StateSigning})
			}
		})
	if err != nil {
		return nil, o.fail(params, "signing transaction", err)
	}
	if hash == "" {
		zap.L().Info("Tip signing cancelled by user",
			zap.String("reference_id", params.Reference.ID))
		o.notifier.Notify(Notification{Variant: VariantWarning, Message: "Transaction signing cancelled"})
		params.emit(Event{State: StateCancelled})
		return nil, ErrCancelled
	}

	params.emit(Event{State: StateSubmitting, Hash: hash})

	tx, err := o.record(ctx, params, detail, baseAmount, hash)
	if err != nil {
		return nil, o.fail(params, "recording transaction", err)
	}

	params.emit(Event{State: StateRecorded, Hash: hash})
	o.notifier.Notify(Notification{Variant: VariantSuccess, Message: fmt.Sprintf("Tip sent: %s %s", tx.Amount.String(), params.Currency.Symbol)})

	if params.OnSuccess != nil {
		params.OnSuccess(*tx)
	}

	if o.balances != nil {
		if err := o.balances.Reload(ctx, params.Sender); err != nil {
			zap.L().Warn("Failed to refresh balances after tip", zap.Error(err))
		}
	}

	return tx, nil
}

func (o *Orchestrator) resolveRecipient(ctx context.Context, params SendTipParams) (*models.WalletDetail, error) {
	if params.WalletDetail != nil {
		return params.WalletDetail, nil
	}
	if o.recipients == nil {
		return nil, fmt.Errorf("no wallet detail supplied and no recipient resolver configured")
	}

	resolveCtx, cancel := context.WithTimeout(ctx, o.rpcTimeout)
	defer cancel()
	return o.recipients.ResolveWalletDetail(resolveCtx, params.Reference)
}

// estimate queries fee and minimum balance concurrently. Failures never
// block the flow: the fee falls back to 0.01 in the currency's base, the
// minimum balance to zero.
func (o *Orchestrator) estimate(ctx context.Context, detail *models.WalletDetail, currency models.Currency) (fee, minBalance decimal.Decimal) {
	fee = common.FallbackFee(currency.Decimals)
	minBalance = decimal.Zero

	estimateCtx, cancel := context.WithTimeout(ctx, o.rpcTimeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		info, err := o.provider.EstimateFee(estimateCtx, detail, currency)
		if err != nil {
			zap.L().Warn("Fee estimation failed, using fallback",
				zap.String("currency", currency.Symbol),
				zap.String("fallback", fee.String()),
				zap.Error(err))
			return nil
		}
		if info.PartialFee.IsPositive() {
			fee = info.PartialFee
		}
		return nil
	})
	g.Go(func() error {
		info, err := o.provider.AssetMinBalance(estimateCtx, currency)
		if err != nil {
			zap.L().Warn("Minimum balance query failed, assuming zero",
				zap.String("currency", currency.Symbol),
				zap.Error(err))
			return nil
		}
		minBalance = info.PartialFee
		return nil
	})
	_ = g.Wait()

	return fee, minBalance
}

// checkBalance blocks the attempt locally when the requested amount reaches
// or exceeds the spendable balance.
func (o *Orchestrator) checkBalance(ctx context.Context, params SendTipParams) error {
	var free decimal.Decimal

	if o.balances != nil {
		if detail, ok := o.balances.Detail(params.Currency.ID); ok {
			free = detail.FreeBalance
		} else {
			base, err := o.freeBalanceDirect(ctx, params.Currency)
			if err != nil {
				return err
			}
			free = common.FromBaseUnits(base, params.Currency.Decimals)
		}
	} else {
		base, err := o.freeBalanceDirect(ctx, params.Currency)
		if err != nil {
			return err
		}
		free = common.FromBaseUnits(base, params.Currency.Decimals)
	}

	if params.Amount.GreaterThanOrEqual(free) {
		zap.L().Info("Tip blocked: insufficient balance",
			zap.String("amount", params.Amount.String()),
			zap.String("free", free.String()),
			zap.String("currency", params.Currency.Symbol))
		return fmt.Errorf("%w: have %s, want %s %s", ErrInsufficientBalance, free.String(), params.Amount.String(), params.Currency.Symbol)
	}
	return nil
}

func (o *Orchestrator) freeBalanceDirect(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	balanceCtx, cancel := context.WithTimeout(ctx, o.rpcTimeout)
	defer cancel()
	return o.provider.FreeBalance(balanceCtx, currency)
}

// record posts the completed transfer to the backend ledger, guarding
// against double-recording via the local tip ledger.
func (o *Orchestrator) record(ctx context.Context, params SendTipParams, detail *models.WalletDetail, baseAmount decimal.Decimal, hash string) (*models.Transaction, error) {
	displayAmount := common.DisplayAmount(baseAmount, params.Currency.Decimals)

	if o.ledger != nil {
		existing, err := o.ledger.TipByHash(ctx, hash)
		if err != nil {
			zap.L().Warn("Tip ledger lookup failed", zap.Error(err))
		} else if existing != nil {
			zap.L().Info("Tip already recorded, skipping backend submission",
				zap.String("hash", hash))
			return &models.Transaction{
				ID:            existing.ID,
				Hash:          existing.Hash,
				Amount:        existing.Amount,
				From:          existing.From,
				To:            existing.To,
				CurrencyID:    existing.CurrencyID,
				ReferenceType: existing.ReferenceType,
				ReferenceID:   existing.ReferenceID,
				CreatedAt:     existing.CreatedAt,
			}, nil
		}
	}

	// Tips to escrow are attributed to the user/people record, direct tips
	// to the resolved address.
	to := detail.ReferenceID
	if detail.ReferenceType != models.WalletReferenceAddress {
		to = params.Reference.OwnerID
	}

	tx, err := o.backend.StoreTransaction(ctx, api.StoreTransactionParams{
		Hash:          hash,
		Amount:        displayAmount,
		From:          o.provider.AccountID(),
		To:            to,
		CurrencyID:    params.Currency.ID,
		ReferenceType: params.Reference.Type,
		ReferenceID:   params.Reference.ID,
	})
	if err != nil {
		return nil, err
	}

	if o.ledger != nil {
		_, err := o.ledger.RecordTip(ctx, store.RecordTipParams{
			Hash:          hash,
			Amount:        displayAmount,
			From:          o.provider.AccountID(),
			To:            to,
			CurrencyID:    params.Currency.ID,
			ReferenceType: params.Reference.Type,
			ReferenceID:   params.Reference.ID,
		})
		if err != nil && !errors.Is(err, store.ErrDuplicateTip) {
			zap.L().Warn("Failed to record tip locally", zap.Error(err))
		}
	}

	return tx, nil
}

// fail converts any step error into the terminal Failed state with a toast
// carrying the underlying message.
func (o *Orchestrator) fail(params SendTipParams, op string, err error) error {
	wrapped := &TransportError{Op: op, Err: err}
	zap.L().Error("Tip attempt failed",
		zap.String("op", op),
		zap.String("reference_id", params.Reference.ID),
		zap.Error(err))
	o.notifier.Notify(Notification{Variant: VariantError, Message: err.Error()})
	params.emit(Event{State: StateFailed, Err: wrapped})
	return wrapped
}
