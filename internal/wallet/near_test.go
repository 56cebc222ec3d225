package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/signer"

	"github.com/shopspring/decimal"
)

// scriptedSigner returns canned payloads without prompting anyone.
type scriptedSigner struct {
	address  string
	signed   string
	declined bool
}

func (s *scriptedSigner) Address() string { return s.address }

func (s *scriptedSigner) BuildTransfer(ctx context.Context, req signer.TransferRequest) (string, error) {
	return "0xunsigned", nil
}

func (s *scriptedSigner) SignTransfer(ctx context.Context, req signer.TransferRequest) (string, error) {
	if s.declined {
		return "", nil
	}
	return s.signed, nil
}

func (s *scriptedSigner) SignClaimFee(ctx context.Context, req signer.ClaimFeeRequest) (string, error) {
	if s.declined {
		return "", nil
	}
	return s.signed, nil
}

type nearRPCRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// nearRPCServer answers with method-keyed canned results.
func nearRPCServer(t *testing.T, results map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req nearRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode rpc request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		method := req.Method
		if method == "query" {
			var params struct {
				RequestType string `json:"request_type"`
			}
			_ = json.Unmarshal(req.Params, &params)
			method = params.RequestType
		}

		result, ok := results[method]
		if !ok {
			t.Errorf("Unexpected rpc method %s", method)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": "test", "result": result})
	}))
}

// jsonBytes renders v the way call_function returns values: an array of
// byte codes of the JSON encoding.
func jsonBytes(t *testing.T, v any) []int {
	encoded, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to encode view result: %v", err)
	}
	out := make([]int, len(encoded))
	for i, b := range encoded {
		out[i] = int(b)
	}
	return out
}

func newTestNearProvider(serverURL string, s signer.Signer) *nearProvider {
	network := models.Network{
		ID:                 "near",
		BlockchainPlatform: models.PlatformNear,
		RPCURL:             serverURL,
	}
	return newNearProvider(network, s, 5*time.Second)
}

func nativeNear() models.Currency {
	return models.Currency{ID: "near", Symbol: "NEAR", Decimals: 24, Native: true, ExistentialDeposit: "0.1"}
}

func wrappedToken() models.Currency {
	return models.Currency{ID: "myria", Symbol: "MYRIA", Decimals: 18, ReferenceID: "myria.token.near"}
}

func TestNearEstimateFee(t *testing.T) {
	server := nearRPCServer(t, map[string]any{
		"gas_price": map[string]string{"gas_price": "100000000"},
	})
	defer server.Close()

	provider := newTestNearProvider(server.URL, &scriptedSigner{address: "alice.near"})

	info, err := provider.EstimateFee(context.Background(), &models.WalletDetail{ReferenceID: "bob.near"}, nativeNear())
	if err != nil {
		t.Fatalf("EstimateFee failed: %v", err)
	}

	want := decimal.NewFromInt(100000000).Mul(decimal.NewFromInt(transferGas))
	if !info.PartialFee.Equal(want) {
		t.Errorf("Expected fee %s, got %s", want.String(), info.PartialFee.String())
	}
}

func TestNearFreeBalance_Native(t *testing.T) {
	server := nearRPCServer(t, map[string]any{
		"view_account": map[string]string{"amount": "250000000000000000000000"},
	})
	defer server.Close()

	provider := newTestNearProvider(server.URL, &scriptedSigner{address: "alice.near"})

	balance, err := provider.FreeBalance(context.Background(), nativeNear())
	if err != nil {
		t.Fatalf("FreeBalance failed: %v", err)
	}
	if balance.String() != "250000000000000000000000" {
		t.Errorf("Expected base-unit balance, got %s", balance.String())
	}
}

func TestNearFreeBalance_Token(t *testing.T) {
	server := nearRPCServer(t, map[string]any{
		"call_function": map[string]any{"result": jsonBytes(t, "5000000000000000000")},
	})
	defer server.Close()

	provider := newTestNearProvider(server.URL, &scriptedSigner{address: "alice.near"})

	balance, err := provider.FreeBalance(context.Background(), wrappedToken())
	if err != nil {
		t.Fatalf("FreeBalance failed: %v", err)
	}
	if balance.String() != "5000000000000000000" {
		t.Errorf("Expected token balance, got %s", balance.String())
	}
}

func TestNearAssetMinBalance(t *testing.T) {
	server := nearRPCServer(t, map[string]any{
		"call_function": map[string]any{"result": jsonBytes(t, map[string]string{"min": "1250000000000000000000"})},
	})
	defer server.Close()

	provider := newTestNearProvider(server.URL, &scriptedSigner{address: "alice.near"})

	// Native: existential deposit from config, shifted to base units.
	info, err := provider.AssetMinBalance(context.Background(), nativeNear())
	if err != nil {
		t.Fatalf("AssetMinBalance failed: %v", err)
	}
	if info.PartialFee.String() != "100000000000000000000000" {
		t.Errorf("Expected 0.1 NEAR in base units, got %s", info.PartialFee.String())
	}

	// Token: storage_balance_bounds.min from the contract.
	info, err = provider.AssetMinBalance(context.Background(), wrappedToken())
	if err != nil {
		t.Fatalf("AssetMinBalance failed: %v", err)
	}
	if info.PartialFee.String() != "1250000000000000000000" {
		t.Errorf("Expected contract minimum, got %s", info.PartialFee.String())
	}
}

func TestNearSubscribeBalance_Unsupported(t *testing.T) {
	provider := newTestNearProvider("http://127.0.0.1:0", &scriptedSigner{address: "alice.near"})

	_, err := provider.SubscribeBalance(context.Background(), nativeNear(), func(decimal.Decimal) {})
	if !errors.Is(err, ErrSubscriptionUnsupported) {
		t.Fatalf("Expected ErrSubscriptionUnsupported, got %v", err)
	}
}

func TestNearSignTippingTransaction(t *testing.T) {
	server := nearRPCServer(t, map[string]any{
		"broadcast_tx_commit": map[string]any{
			"transaction": map[string]string{"hash": "8Fq..."},
		},
	})
	defer server.Close()

	provider := newTestNearProvider(server.URL, &scriptedSigner{address: "alice.near", signed: "c2lnbmVk"})

	var opened bool
	hash, err := provider.SignTippingTransaction(context.Background(),
		&models.WalletDetail{ReferenceID: "bob.near", ReferenceType: models.WalletReferenceAddress},
		decimal.NewFromInt(1), nativeNear(), "",
		func(status signer.Status) { opened = status.SignerOpened })
	if err != nil {
		t.Fatalf("SignTippingTransaction failed: %v", err)
	}
	if hash != "8Fq..." {
		t.Errorf("Expected broadcast hash, got %q", hash)
	}
	if !opened {
		t.Error("Expected signer-opened callback")
	}
}

func TestNearSignTippingTransaction_Declined(t *testing.T) {
	provider := newTestNearProvider("http://127.0.0.1:0", &scriptedSigner{address: "alice.near", declined: true})

	hash, err := provider.SignTippingTransaction(context.Background(),
		&models.WalletDetail{ReferenceID: "bob.near"},
		decimal.NewFromInt(1), nativeNear(), "", nil)
	if err != nil {
		t.Fatalf("Expected declined signing to be a nil error, got %v", err)
	}
	if hash != "" {
		t.Errorf("Expected empty hash for declined signing, got %q", hash)
	}
}

func TestNearRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      "test",
			"error":   map[string]any{"code": -32000, "message": "server error"},
		})
	}))
	defer server.Close()

	provider := newTestNearProvider(server.URL, &scriptedSigner{address: "alice.near"})

	if _, err := provider.EstimateFee(context.Background(), &models.WalletDetail{}, nativeNear()); err == nil {
		t.Fatal("Expected error from rpc error envelope")
	}
}
