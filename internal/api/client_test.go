package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myriad-tipping-go/internal/models"

	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, func()) {
	server := httptest.NewServer(handler)

	client, err := NewClient(models.BackendConfig{
		BaseURL:     server.URL,
		AccessToken: "test-token",
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	return client, server.Close
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer cleanup()

	if _, err := client.Currencies(context.Background()); err != nil {
		t.Fatalf("Currencies failed: %v", err)
	}
	if got != "Bearer test-token" {
		t.Errorf("Expected bearer header, got %q", got)
	}
}

func TestClient_DecodesErrorEnvelope(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"message":"amount must be positive"}}`))
	}))
	defer cleanup()

	_, err := client.Currencies(context.Background())
	if err == nil {
		t.Fatal("Expected error for 422 response")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", apiErr.Status)
	}
	if apiErr.Message != "amount must be positive" {
		t.Errorf("Expected backend message, got %q", apiErr.Message)
	}
}

func TestWalletAddressRoutes(t *testing.T) {
	var path string
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewEncoder(w).Encode(models.WalletDetail{
			ReferenceID:   "0xabc",
			ReferenceType: models.WalletReferenceAddress,
		})
	}))
	defer cleanup()

	ctx := context.Background()

	if _, err := client.UserWalletAddress(ctx, "user-1"); err != nil {
		t.Fatalf("UserWalletAddress failed: %v", err)
	}
	if path != "/users/user-1/walletaddress" {
		t.Errorf("Unexpected path %s", path)
	}

	if _, err := client.CommentWalletAddress(ctx, "comment-1"); err != nil {
		t.Fatalf("CommentWalletAddress failed: %v", err)
	}
	if path != "/comments/comment-1/walletaddress" {
		t.Errorf("Unexpected path %s", path)
	}

	detail, err := client.PostWalletAddress(ctx, "post-1")
	if err != nil {
		t.Fatalf("PostWalletAddress failed: %v", err)
	}
	if path != "/posts/post-1/walletaddress" {
		t.Errorf("Unexpected path %s", path)
	}
	if !detail.Resolved() {
		t.Error("Expected an address-typed detail to be resolved")
	}
}

func TestStoreTransaction(t *testing.T) {
	var body StoreTransactionParams
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transactions" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(models.Transaction{
			ID:     "tx-1",
			Hash:   body.Hash,
			Amount: body.Amount,
		})
	}))
	defer cleanup()

	tx, err := client.StoreTransaction(context.Background(), StoreTransactionParams{
		Hash:          "0xhash",
		Amount:        decimal.RequireFromString("1.5"),
		From:          "sender",
		To:            "recipient",
		CurrencyID:    "dot",
		ReferenceType: models.ReferenceTypePost,
		ReferenceID:   "post-1",
	})
	if err != nil {
		t.Fatalf("StoreTransaction failed: %v", err)
	}

	if body.Hash != "0xhash" || body.CurrencyID != "dot" {
		t.Errorf("Body not forwarded: %+v", body)
	}
	if tx.ID != "tx-1" {
		t.Errorf("Expected tx-1, got %s", tx.ID)
	}
}

func TestListTransactions_QueryEncoding(t *testing.T) {
	var query map[string]string
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for key := range r.URL.Query() {
			query[key] = r.URL.Query().Get(key)
		}
		_ = json.NewEncoder(w).Encode(models.TransactionList{
			Meta: models.ListMeta{CurrentPage: 2, TotalPageCount: 3},
		})
	}))
	defer cleanup()

	list, err := client.ListTransactions(context.Background(), TransactionQuery{
		Page:          2,
		ReferenceID:   "post-1",
		ReferenceType: models.ReferenceTypePost,
		Sort:          models.SortHighest,
	})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}

	if query["pageNumber"] != "2" {
		t.Errorf("Expected pageNumber=2, got %s", query["pageNumber"])
	}
	if query["pageLimit"] != "10" {
		t.Errorf("Expected default pageLimit=10, got %s", query["pageLimit"])
	}
	if query["referenceId"] != "post-1" || query["referenceType"] != "post" {
		t.Errorf("Reference filter not forwarded: %v", query)
	}
	if query["filter[order]"] != "amount DESC" {
		t.Errorf("Expected amount DESC ordering, got %s", query["filter[order]"])
	}
	if list.Meta.CurrentPage != 2 || list.Meta.TotalPageCount != 3 {
		t.Errorf("Meta not decoded: %+v", list.Meta)
	}
}

func TestListTransactions_DefaultSort(t *testing.T) {
	var order string
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = r.URL.Query().Get("filter[order]")
		_ = json.NewEncoder(w).Encode(models.TransactionList{})
	}))
	defer cleanup()

	if _, err := client.ListTransactions(context.Background(), TransactionQuery{}); err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if order != "createdAt DESC" {
		t.Errorf("Expected createdAt DESC ordering, got %s", order)
	}
}

func TestClaimReferences(t *testing.T) {
	var method string
	var body ClaimReferenceParams
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer cleanup()

	err := client.ClaimReferences(context.Background(), ClaimReferenceParams{
		TxFee:             "0.01",
		TippingContractID: "tipping.myriad.near",
	})
	if err != nil {
		t.Fatalf("ClaimReferences failed: %v", err)
	}
	if method != http.MethodPatch {
		t.Errorf("Expected PATCH, got %s", method)
	}
	if body.TxFee != "0.01" {
		t.Errorf("Fee not forwarded: %+v", body)
	}
}

func TestUserCurrencies_Query(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user-currencies" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("userId") != "user-1" {
			t.Errorf("Expected userId filter, got %v", r.URL.Query())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []models.Currency{{ID: "dot", Symbol: "DOT", Decimals: 10}},
		})
	}))
	defer cleanup()

	currencies, err := client.UserCurrencies(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("UserCurrencies failed: %v", err)
	}
	if len(currencies) != 1 || currencies[0].Symbol != "DOT" {
		t.Errorf("Currencies not decoded: %+v", currencies)
	}
}
