package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntrySource tags ledger entries imported from the broker export.
const EntrySource = "trading212"

// EntryKind distinguishes plain cash movements from trades.
type EntryKind string

const (
	EntryCash  EntryKind = "cash"
	EntryTrade EntryKind = "trade"
)

// LedgerEntry is one posting in the local ledger. Amounts follow the internal
// sign convention: positive = outflow (expense), negative = inflow (income).
// Entries are keyed by (ledger account, external id, source) and are only
// ever created once per key.
type LedgerEntry struct {
	ID              int64
	LedgerAccountID int64
	ExternalID      string
	Source          string
	Kind            EntryKind
	Date            time.Time
	Amount          decimal.Decimal
	Currency        string
	Name            string
	Notes           string

	// Trade-only fields. Quantity is signed (negative = sell). PricePerShare
	// is in the share's own currency, which may differ from the account's
	// settlement currency.
	Quantity      decimal.Decimal
	PricePerShare decimal.Decimal
	PriceCurrency string
	SecurityID    int64

	MerchantID string
}

// EntryKey is the idempotency key for find-or-create of ledger entries.
type EntryKey struct {
	LedgerAccountID int64
	ExternalID      string
	Source          string
}

// Key returns the entry's idempotency key.
func (e LedgerEntry) Key() EntryKey {
	return EntryKey{LedgerAccountID: e.LedgerAccountID, ExternalID: e.ExternalID, Source: e.Source}
}

// TransferConfirmed is the status assigned to synthesized transfers.
const TransferConfirmed = "confirmed"

// Transfer links an outflow entry to an inflow entry, representing money
// moving between two locally tracked accounts for a single trade event.
// Keyed by the entry pair for idempotency.
type Transfer struct {
	ID           int64
	OutflowEntry int64
	InflowEntry  int64
	Status       string
}

// Security is a tradeable instrument resolved from a ticker symbol.
type Security struct {
	ID     int64
	Ticker string
	ISIN   string
	Name   string
}

// Merchant is a normalized counterparty for cash movements. Its ID is a
// stable hash of the lowercased name.
type Merchant struct {
	ID       string
	Name     string
	Category string
}

// Valuation is a balance checkpoint on a ledger account. The opening anchor
// is a zero-balance valuation one day before the earliest known activity.
type Valuation struct {
	LedgerAccountID int64
	Date            time.Time
	Balance         decimal.Decimal
	Kind            string
}

// ValuationOpeningAnchor marks the opening-balance anchor valuation.
const ValuationOpeningAnchor = "opening_anchor"
