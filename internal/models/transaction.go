package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionSort selects the ordering of a transaction history listing.
type TransactionSort string

const (
	SortLatest  TransactionSort = "latest"
	SortHighest TransactionSort = "highest"
)

// Transaction is a persisted record of a completed transfer. Created by the
// backend after submission; immutable afterwards.
type Transaction struct {
	ID            string          `json:"id"`
	Hash          string          `json:"hash"`
	Amount        decimal.Decimal `json:"amount"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	CurrencyID    string          `json:"currencyId"`
	ReferenceType ReferenceType   `json:"type,omitempty"`
	ReferenceID   string          `json:"referenceId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ListMeta is the backend's pagination metadata block.
type ListMeta struct {
	CurrentPage    int `json:"currentPage"`
	ItemsPerPage   int `json:"itemsPerPage"`
	TotalItemCount int `json:"totalItemCount"`
	TotalPageCount int `json:"totalPageCount"`
}

// TransactionList is one page of transaction history.
type TransactionList struct {
	Data []Transaction `json:"data"`
	Meta ListMeta      `json:"meta"`
}
