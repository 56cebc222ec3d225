package balance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"myriad-tipping-go/internal/common"
	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrRPCConnection marks a chain connectivity failure during a balance
// load. It is recoverable: the cache keeps its last values and the caller
// may retry.
var ErrRPCConnection = errors.New("issue connecting to RPC")

// Resolver caches per-currency balances for the active account. It is the
// single writer of its cache; consumers read snapshots.
type Resolver struct {
	provider wallet.Provider

	mu          sync.RWMutex
	details     map[string]models.BalanceDetail
	order       []string
	currencies  []models.Currency
	initialized bool
	unsubs      []func()
}

func NewResolver(provider wallet.Provider) *Resolver {
	return &Resolver{
		provider: provider,
		details:  make(map[string]models.BalanceDetail),
	}
}

// Load fetches the free balance for every currency and subscribes to push
// updates where the chain supports them. Anonymous sessions are skipped, as
// are repeat loads unless force is set.
func (r *Resolver) Load(ctx context.Context, account models.Account, currencies []models.Currency, force bool) error {
	if account.Anonymous {
		zap.L().Debug("Skipping balance load for anonymous session")
		return nil
	}

	r.mu.RLock()
	initialized := r.initialized
	r.mu.RUnlock()
	if initialized && !force {
		return nil
	}

	loaded := make(map[string]models.BalanceDetail, len(currencies))
	order := make([]string, 0, len(currencies))
	var unsubs []func()

	for _, currency := range currencies {
		base, err := r.provider.FreeBalance(ctx, currency)
		if err != nil {
			for _, unsub := range unsubs {
				unsub()
			}
			zap.L().Error("Failed to load balance",
				zap.String("currency", currency.ID),
				zap.Error(err))
			return fmt.Errorf("%w: %v", ErrRPCConnection, err)
		}

		loaded[currency.ID] = models.BalanceDetail{
			Currency:    currency,
			FreeBalance: common.DisplayAmount(base, currency.Decimals),
		}
		order = append(order, currency.ID)

		unsub, err := r.subscribeDeltas(ctx, currency)
		if err != nil {
			if !errors.Is(err, wallet.ErrSubscriptionUnsupported) {
				zap.L().Warn("Balance push updates unavailable",
					zap.String("currency", currency.ID),
					zap.Error(err))
			}
			continue
		}
		unsubs = append(unsubs, unsub)
	}

	r.mu.Lock()
	previous := r.unsubs
	r.details = loaded
	r.order = order
	r.currencies = currencies
	r.initialized = true
	r.unsubs = unsubs
	r.mu.Unlock()

	for _, unsub := range previous {
		unsub()
	}

	zap.L().Info("Balances loaded",
		zap.String("address", account.Address),
		zap.Int("currencies", len(currencies)),
		zap.Int("subscriptions", len(unsubs)))

	return nil
}

func (r *Resolver) subscribeDeltas(ctx context.Context, currency models.Currency) (func(), error) {
	return r.provider.SubscribeBalance(ctx, currency, func(delta decimal.Decimal) {
		r.adjust(currency, delta)
	})
}

// adjust applies a pushed base-unit delta to the cached display balance.
func (r *Resolver) adjust(currency models.Currency, baseDelta decimal.Decimal) {
	displayDelta := common.FromBaseUnits(baseDelta, currency.Decimals)

	r.mu.Lock()
	defer r.mu.Unlock()

	detail, ok := r.details[currency.ID]
	if !ok {
		return
	}
	detail.FreeBalance = detail.FreeBalance.Add(displayDelta)
	r.details[currency.ID] = detail

	zap.L().Debug("Balance adjusted from push update",
		zap.String("currency", currency.ID),
		zap.String("delta", displayDelta.String()),
		zap.String("balance", detail.FreeBalance.String()))
}

// Reload refreshes the cache using the currency set of the last Load.
func (r *Resolver) Reload(ctx context.Context, account models.Account) error {
	r.mu.RLock()
	currencies := r.currencies
	r.mu.RUnlock()
	if len(currencies) == 0 {
		return nil
	}
	return r.Load(ctx, account, currencies, true)
}

// Details returns a snapshot of every cached balance, in load order.
func (r *Resolver) Details() []models.BalanceDetail {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.BalanceDetail, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.details[id])
	}
	return out
}

// Detail returns the cached balance for one currency.
func (r *Resolver) Detail(currencyID string) (models.BalanceDetail, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	detail, ok := r.details[currencyID]
	return detail, ok
}

// Initialized reports whether an initial load has completed.
func (r *Resolver) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Stop cancels every balance subscription.
func (r *Resolver) Stop() {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}
