package wallet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/signer"

	"github.com/shopspring/decimal"
)

// transferGas is the gas attached to a plain transfer action, used to turn
// the network's gas price into a fee quote.
const transferGas = 450_000_000_000

type nearProvider struct {
	network    models.Network
	signer     signer.Signer
	httpClient *http.Client
}

func newNearProvider(network models.Network, s signer.Signer, rpcTimeout time.Duration) *nearProvider {
	if rpcTimeout <= 0 {
		rpcTimeout = 30 * time.Second
	}
	return &nearProvider{
		network: network,
		signer:  s,
		httpClient: &http.Client{
			Timeout: rpcTimeout,
		},
	}
}

func (p *nearProvider) AccountID() string {
	return p.signer.Address()
}

func (p *nearProvider) EstimateFee(ctx context.Context, detail *models.WalletDetail, currency models.Currency) (FeeInfo, error) {
	var result struct {
		GasPrice string `json:"gas_price"`
	}
	if err := p.call(ctx, "gas_price", []any{nil}, &result); err != nil {
		return FeeInfo{}, err
	}

	gasPrice, err := decimal.NewFromString(result.GasPrice)
	if err != nil {
		return FeeInfo{}, fmt.Errorf("invalid gas price %q: %w", result.GasPrice, err)
	}
	return FeeInfo{PartialFee: gasPrice.Mul(decimal.NewFromInt(transferGas))}, nil
}

func (p *nearProvider) AssetMinBalance(ctx context.Context, currency models.Currency) (FeeInfo, error) {
	if currency.Native {
		base := currency.MinDeposit().Shift(currency.Decimals)
		return FeeInfo{PartialFee: base.Truncate(0)}, nil
	}

	var bounds struct {
		Min string `json:"min"`
	}
	if err := p.viewFunction(ctx, currency.ReferenceID, "storage_balance_bounds", map[string]any{}, &bounds); err != nil {
		return FeeInfo{}, err
	}

	min, err := decimal.NewFromString(bounds.Min)
	if err != nil {
		return FeeInfo{}, fmt.Errorf("invalid storage balance bound %q: %w", bounds.Min, err)
	}
	return FeeInfo{PartialFee: min}, nil
}

func (p *nearProvider) FreeBalance(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	if currency.Native {
		var account struct {
			Amount string `json:"amount"`
		}
		params := map[string]any{
			"request_type": "view_account",
			"finality":     "final",
			"account_id":   p.signer.Address(),
		}
		if err := p.call(ctx, "query", params, &account); err != nil {
			return decimal.Zero, err
		}
		amount, err := decimal.NewFromString(account.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid account amount %q: %w", account.Amount, err)
		}
		return amount, nil
	}

	var balance string
	args := map[string]any{"account_id": p.signer.Address()}
	if err := p.viewFunction(ctx, currency.ReferenceID, "ft_balance_of", args, &balance); err != nil {
		return decimal.Zero, err
	}

	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid token balance %q: %w", balance, err)
	}
	return amount, nil
}

// NEAR RPC has no storage push channel; balances refresh on demand only.
func (p *nearProvider) SubscribeBalance(ctx context.Context, currency models.Currency, onChange func(delta decimal.Decimal)) (func(), error) {
	return nil, ErrSubscriptionUnsupported
}

func (p *nearProvider) SignTippingTransaction(ctx context.Context, detail *models.WalletDetail, amount decimal.Decimal, currency models.Currency, memo string, onStatus signer.StatusFunc) (string, error) {
	notifySignerOpened(onStatus)

	signed, err := p.signer.SignTransfer(ctx, signer.TransferRequest{
		NetworkID:           p.network.ID,
		To:                  detail.ReferenceID,
		Amount:              amount,
		CurrencyReferenceID: currency.ReferenceID,
		Memo:                memo,
	})
	if err != nil {
		return "", err
	}
	if signed == "" {
		return "", nil
	}

	return p.broadcast(ctx, signed)
}

func (p *nearProvider) PayTransactionFee(ctx context.Context, info models.TipsBalanceInfo, amount decimal.Decimal, onStatus signer.StatusFunc) (string, error) {
	notifySignerOpened(onStatus)

	signed, err := p.signer.SignClaimFee(ctx, signer.ClaimFeeRequest{
		NetworkID:   p.network.ID,
		TipsBalance: info,
		Amount:      amount,
	})
	if err != nil {
		return "", err
	}
	if signed == "" {
		return "", nil
	}

	return p.broadcast(ctx, signed)
}

func (p *nearProvider) broadcast(ctx context.Context, signedTx string) (string, error) {
	var result struct {
		Transaction struct {
			Hash string `json:"hash"`
		} `json:"transaction"`
	}
	if err := p.call(ctx, "broadcast_tx_commit", []any{signedTx}, &result); err != nil {
		return "", fmt.Errorf("unable to broadcast transaction: %w", err)
	}
	return result.Transaction.Hash, nil
}

// viewFunction calls a read-only contract method and decodes its JSON
// return value into out.
func (p *nearProvider) viewFunction(ctx context.Context, contractID, method string, args map[string]any, out any) error {
	encodedArgs, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode view args: %w", err)
	}

	params := map[string]any{
		"request_type": "call_function",
		"finality":     "final",
		"account_id":   contractID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(encodedArgs),
	}

	// the return value arrives as an array of byte values
	var result struct {
		Result []int `json:"result"`
	}
	if err := p.call(ctx, "query", params, &result); err != nil {
		return err
	}

	raw := make([]byte, len(result.Result))
	for i, b := range result.Result {
		raw[i] = byte(b)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s return value: %w", method, err)
	}
	return nil
}

func (p *nearProvider) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      "myriad-tipping",
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.network.RPCURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc call %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc call %s returned status %d", method, resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode rpc response: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc call %s failed: %w", method, envelope.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (p *nearProvider) Close() error {
	return nil
}
