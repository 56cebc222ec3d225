package models

import "github.com/shopspring/decimal"

// Currency is immutable token reference data.
type Currency struct {
	ID       string `yaml:"id" json:"id"`
	Symbol   string `yaml:"symbol" json:"symbol"`
	Decimals int32  `yaml:"decimals" json:"decimal"`
	Native   bool   `yaml:"native" json:"native"`
	// ReferenceID is the on-chain asset reference: an asset id on Substrate
	// asset pallets, a token contract account on NEAR. Empty for native.
	ReferenceID string `yaml:"referenceId" json:"referenceId,omitempty"`
	// ExistentialDeposit is the chain's minimum holdable balance for the
	// native token, in display units. Empty when the chain has none.
	ExistentialDeposit string `yaml:"existentialDeposit" json:"-"`
	NetworkID          string `yaml:"-" json:"networkId"`
	Priority           int    `yaml:"priority" json:"priority"`
}

// MinDeposit parses ExistentialDeposit, defaulting to zero.
func (c Currency) MinDeposit() decimal.Decimal {
	if c.ExistentialDeposit == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(c.ExistentialDeposit)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// BalanceDetail joins a Currency with the observed free balance of the
// active account, in display units.
type BalanceDetail struct {
	Currency
	FreeBalance   decimal.Decimal
	PreviousNonce uint64
}
