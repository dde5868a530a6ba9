package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountKind classifies the two sides of a brokerage connection.
type AccountKind string

const (
	KindCash       AccountKind = "cash"
	KindInvestment AccountKind = "investment"
)

// BrokerAccount represents one side (cash or investment) of a brokerage
// connection. It carries the snapshot balances reported by the broker and an
// optional link to a local ledger account. An unlinked BrokerAccount exists
// but is inert: no transaction is ever classified for it.
type BrokerAccount struct {
	ID               int64
	ConnectionID     string
	ExternalID       string // "<remoteID>_cash" or "<remoteID>_investment"
	Kind             AccountKind
	Currency         string
	Balance          decimal.Decimal
	AvailableBalance decimal.Decimal
	LedgerAccountID  int64 // 0 = unlinked
}

// Linked reports whether the broker account is linked to a local ledger account.
func (a BrokerAccount) Linked() bool { return a.LedgerAccountID != 0 }

// ExternalAccountID builds the deterministic external id for one side of a
// remote account. The suffix is what guarantees exactly one cash and one
// investment BrokerAccount per connection.
func ExternalAccountID(remoteID int64, kind AccountKind) string {
	return fmt.Sprintf("%d_%s", remoteID, kind)
}

// LedgerAccount is a locally tracked account that ledger entries post to.
type LedgerAccount struct {
	ID               int64
	Name             string
	Currency         string
	Balance          decimal.Decimal
	AvailableBalance decimal.Decimal
}
