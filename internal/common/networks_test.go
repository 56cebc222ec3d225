package common

import (
	"testing"

	"myriad-tipping-go/internal/models"
)

func testNetworks() []models.Network {
	return []models.Network{
		{
			ID:                 "polkadot",
			BlockchainPlatform: models.PlatformSubstrate,
			RPCURL:             "wss://rpc.polkadot.io",
			Currencies: []models.Currency{
				{ID: "usdt-polkadot", Symbol: "USDT", Decimals: 6, ReferenceID: "1984", Priority: 2},
				{ID: "dot", Symbol: "DOT", Decimals: 10, Native: true, ExistentialDeposit: "10000000000", Priority: 1},
			},
		},
		{
			ID:                 "near",
			BlockchainPlatform: models.PlatformNear,
			RPCURL:             "https://rpc.mainnet.near.org",
			Currencies: []models.Currency{
				{ID: "near", Symbol: "NEAR", Decimals: 24, Native: true, ExistentialDeposit: "0.1", Priority: 1},
			},
		},
	}
}

func TestNewNetworkRegistry(t *testing.T) {
	registry, err := NewNetworkRegistry(testNetworks())
	if err != nil {
		t.Fatalf("NewNetworkRegistry failed: %v", err)
	}

	if len(registry.Networks()) != 2 {
		t.Errorf("Expected 2 networks, got %d", len(registry.Networks()))
	}

	network, err := registry.Network("polkadot")
	if err != nil {
		t.Fatalf("Network lookup failed: %v", err)
	}

	// Currencies come back sorted by priority.
	if network.Currencies[0].Symbol != "DOT" {
		t.Errorf("Expected DOT first, got %s", network.Currencies[0].Symbol)
	}

	// Currencies are stamped with their network id.
	currency, err := registry.Currency("polkadot", "USDT")
	if err != nil {
		t.Fatalf("Currency lookup failed: %v", err)
	}
	if currency.NetworkID != "polkadot" {
		t.Errorf("Expected network id polkadot, got %s", currency.NetworkID)
	}
}

func TestNewNetworkRegistry_UnknownLookups(t *testing.T) {
	registry, err := NewNetworkRegistry(testNetworks())
	if err != nil {
		t.Fatalf("NewNetworkRegistry failed: %v", err)
	}

	if _, err := registry.Network("ethereum"); err == nil {
		t.Error("Expected error for unknown network")
	}
	if _, err := registry.Currency("polkadot", "KSM"); err == nil {
		t.Error("Expected error for unknown currency")
	}
}

func TestNewNetworkRegistry_Validation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(networks []models.Network)
		wantErr bool
	}{
		{"valid", func([]models.Network) {}, false},
		{"missing id", func(n []models.Network) { n[0].ID = "" }, true},
		{"missing rpc url", func(n []models.Network) { n[0].RPCURL = "" }, true},
		{"unknown platform", func(n []models.Network) { n[0].BlockchainPlatform = "ethereum" }, true},
		{"zero decimals", func(n []models.Network) { n[0].Currencies[0].Decimals = 0 }, true},
		{"non-native without reference", func(n []models.Network) { n[0].Currencies[0].ReferenceID = "" }, true},
		{"bad existential deposit", func(n []models.Network) { n[1].Currencies[0].ExistentialDeposit = "lots" }, true},
	}

	for _, tc := range cases {
		networks := testNetworks()
		tc.mutate(networks)
		_, err := NewNetworkRegistry(networks)
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}
