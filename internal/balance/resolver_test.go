package balance

import (
	"context"
	"errors"
	"testing"

	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/signer"
	"myriad-tipping-go/internal/wallet"

	"github.com/shopspring/decimal"
)

// fakeProvider serves scripted balances and captures subscriptions.
type fakeProvider struct {
	balances   map[string]decimal.Decimal
	balanceErr error
	noPush     bool

	loads     int
	onChange  map[string]func(decimal.Decimal)
	cancelled int
}

func (p *fakeProvider) AccountID() string { return "5Account" }

func (p *fakeProvider) EstimateFee(ctx context.Context, detail *models.WalletDetail, currency models.Currency) (wallet.FeeInfo, error) {
	return wallet.FeeInfo{}, nil
}

func (p *fakeProvider) AssetMinBalance(ctx context.Context, currency models.Currency) (wallet.FeeInfo, error) {
	return wallet.FeeInfo{}, nil
}

func (p *fakeProvider) FreeBalance(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	if p.balanceErr != nil {
		return decimal.Zero, p.balanceErr
	}
	p.loads++
	return p.balances[currency.ID], nil
}

func (p *fakeProvider) SubscribeBalance(ctx context.Context, currency models.Currency, onChange func(decimal.Decimal)) (func(), error) {
	if p.noPush {
		return nil, wallet.ErrSubscriptionUnsupported
	}
	if p.onChange == nil {
		p.onChange = make(map[string]func(decimal.Decimal))
	}
	p.onChange[currency.ID] = onChange
	return func() { p.cancelled++ }, nil
}

func (p *fakeProvider) SignTippingTransaction(ctx context.Context, detail *models.WalletDetail, amount decimal.Decimal, currency models.Currency, memo string, onStatus signer.StatusFunc) (string, error) {
	return "", nil
}

func (p *fakeProvider) PayTransactionFee(ctx context.Context, info models.TipsBalanceInfo, amount decimal.Decimal, onStatus signer.StatusFunc) (string, error) {
	return "", nil
}

func (p *fakeProvider) Close() error { return nil }

func testCurrencies() []models.Currency {
	return []models.Currency{
		{ID: "dot", Symbol: "DOT", Decimals: 10, Native: true},
		{ID: "usdt", Symbol: "USDT", Decimals: 6, ReferenceID: "1984"},
	}
}

func testAccount() models.Account {
	return models.Account{Address: "5Account", NetworkID: "polkadot"}
}

func TestLoad(t *testing.T) {
	provider := &fakeProvider{balances: map[string]decimal.Decimal{
		"dot":  decimal.RequireFromString("15000000000"), // 1.5 DOT
		"usdt": decimal.RequireFromString("2500000"),     // 2.5 USDT
	}}
	resolver := NewResolver(provider)

	if err := resolver.Load(context.Background(), testAccount(), testCurrencies(), false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	details := resolver.Details()
	if len(details) != 2 {
		t.Fatalf("Expected 2 balances, got %d", len(details))
	}
	if details[0].FreeBalance.String() != "1.5" {
		t.Errorf("Expected 1.5 DOT, got %s", details[0].FreeBalance.String())
	}
	if details[1].FreeBalance.String() != "2.5" {
		t.Errorf("Expected 2.5 USDT, got %s", details[1].FreeBalance.String())
	}
	if !resolver.Initialized() {
		t.Error("Expected resolver initialized after load")
	}
}

func TestLoad_SkipsAnonymousSession(t *testing.T) {
	provider := &fakeProvider{balances: map[string]decimal.Decimal{}}
	resolver := NewResolver(provider)

	account := testAccount()
	account.Anonymous = true
	if err := resolver.Load(context.Background(), account, testCurrencies(), false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if provider.loads != 0 {
		t.Error("Anonymous session must not hit the chain")
	}
	if resolver.Initialized() {
		t.Error("Anonymous load must not mark the cache initialized")
	}
}

func TestLoad_SecondLoadNeedsForce(t *testing.T) {
	provider := &fakeProvider{balances: map[string]decimal.Decimal{
		"dot": decimal.RequireFromString("10000000000"),
	}}
	resolver := NewResolver(provider)
	currencies := testCurrencies()[:1]

	ctx := context.Background()
	if err := resolver.Load(ctx, testAccount(), currencies, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	loads := provider.loads

	if err := resolver.Load(ctx, testAccount(), currencies, false); err != nil {
		t.Fatalf("Repeat load failed: %v", err)
	}
	if provider.loads != loads {
		t.Error("Repeat load without force must be a no-op")
	}

	provider.balances["dot"] = decimal.RequireFromString("30000000000")
	if err := resolver.Load(ctx, testAccount(), currencies, true); err != nil {
		t.Fatalf("Forced load failed: %v", err)
	}
	detail, ok := resolver.Detail("dot")
	if !ok {
		t.Fatal("Expected dot balance")
	}
	if detail.FreeBalance.String() != "3" {
		t.Errorf("Expected refreshed balance 3, got %s", detail.FreeBalance.String())
	}
	if provider.cancelled == 0 {
		t.Error("Forced reload must cancel the previous subscriptions")
	}
}

func TestLoad_PushDeltaAdjustsBalance(t *testing.T) {
	provider := &fakeProvider{balances: map[string]decimal.Decimal{
		"dot": decimal.RequireFromString("20000000000"), // 2 DOT
	}}
	resolver := NewResolver(provider)

	if err := resolver.Load(context.Background(), testAccount(), testCurrencies()[:1], false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// 0.5 DOT arrives.
	provider.onChange["dot"](decimal.RequireFromString("5000000000"))

	detail, _ := resolver.Detail("dot")
	if detail.FreeBalance.String() != "2.5" {
		t.Errorf("Expected 2.5 after credit, got %s", detail.FreeBalance.String())
	}

	// 1 DOT leaves.
	provider.onChange["dot"](decimal.RequireFromString("-10000000000"))

	detail, _ = resolver.Detail("dot")
	if detail.FreeBalance.String() != "1.5" {
		t.Errorf("Expected 1.5 after debit, got %s", detail.FreeBalance.String())
	}
}

func TestLoad_NoPushChannel(t *testing.T) {
	provider := &fakeProvider{
		balances: map[string]decimal.Decimal{"dot": decimal.RequireFromString("10000000000")},
		noPush:   true,
	}
	resolver := NewResolver(provider)

	// Chains without subscriptions still load; they just stay pull-only.
	if err := resolver.Load(context.Background(), testAccount(), testCurrencies()[:1], false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(resolver.Details()) != 1 {
		t.Errorf("Expected 1 balance, got %d", len(resolver.Details()))
	}
}

func TestLoad_RPCFailureKeepsOldCache(t *testing.T) {
	provider := &fakeProvider{balances: map[string]decimal.Decimal{
		"dot": decimal.RequireFromString("10000000000"),
	}}
	resolver := NewResolver(provider)
	currencies := testCurrencies()[:1]

	ctx := context.Background()
	if err := resolver.Load(ctx, testAccount(), currencies, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	provider.balanceErr = errors.New("connection refused")
	err := resolver.Load(ctx, testAccount(), currencies, true)
	if !errors.Is(err, ErrRPCConnection) {
		t.Fatalf("Expected ErrRPCConnection, got %v", err)
	}

	detail, ok := resolver.Detail("dot")
	if !ok {
		t.Fatal("Expected cached balance to survive the failure")
	}
	if detail.FreeBalance.String() != "1" {
		t.Errorf("Expected cached balance 1, got %s", detail.FreeBalance.String())
	}
}
