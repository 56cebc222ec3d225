package signer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newGateway(t *testing.T, handler http.HandlerFunc) (*RemoteSigner, func()) {
	mux := http.NewServeMux()
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"address": "5Connected"})
	})
	mux.HandleFunc("/", handler)
	server := httptest.NewServer(mux)

	remote, err := NewRemoteSigner(context.Background(), server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewRemoteSigner failed: %v", err)
	}
	return remote, server.Close
}

func TestNewRemoteSigner_ResolvesAccount(t *testing.T) {
	remote, cleanup := newGateway(t, func(w http.ResponseWriter, r *http.Request) {})
	defer cleanup()

	if remote.Address() != "5Connected" {
		t.Errorf("Expected connected address, got %s", remote.Address())
	}
}

func TestNewRemoteSigner_NoAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"address": ""})
	}))
	defer server.Close()

	if _, err := NewRemoteSigner(context.Background(), server.URL, time.Second); err == nil {
		t.Fatal("Expected error when no account is connected")
	}
}

func TestSignTransfer(t *testing.T) {
	var path string
	var req TransferRequest
	remote, cleanup := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{"payload": "0xsigned"})
	})
	defer cleanup()

	signed, err := remote.SignTransfer(context.Background(), TransferRequest{
		NetworkID: "polkadot",
		To:        "5Recipient",
		Amount:    decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("SignTransfer failed: %v", err)
	}

	if path != "/sign-transfer" {
		t.Errorf("Unexpected path %s", path)
	}
	if req.To != "5Recipient" {
		t.Errorf("Request not forwarded: %+v", req)
	}
	if signed != "0xsigned" {
		t.Errorf("Expected signed payload, got %q", signed)
	}
}

func TestSignTransfer_Declined(t *testing.T) {
	remote, cleanup := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"declined": true})
	})
	defer cleanup()

	signed, err := remote.SignTransfer(context.Background(), TransferRequest{NetworkID: "polkadot"})
	if err != nil {
		t.Fatalf("Declined signing must not be an error, got %v", err)
	}
	if signed != "" {
		t.Errorf("Expected empty payload for declined prompt, got %q", signed)
	}
}

func TestSignClaimFee_GatewayError(t *testing.T) {
	remote, cleanup := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer cleanup()

	if _, err := remote.SignClaimFee(context.Background(), ClaimFeeRequest{NetworkID: "near"}); err == nil {
		t.Fatal("Expected error for gateway failure")
	}
}
