// Package ledger holds the double-entry domain operations: building the
// paired postings that represent money moving between the cash and investment
// accounts for a single trade, and validating that a pair balances.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/brokersync/internal/id"
	"github.com/cleared-dev/brokersync/internal/model"
)

// TransferLegs is the atomic result of synthesizing a trade's money movement:
// an outflow posting in the source account, an inflow posting in the
// destination account and the Transfer that links them. The underlying store
// commits them as separate idempotent upserts, but they are constructed and
// validated as one unit.
type TransferLegs struct {
	Outflow  model.LedgerEntry
	Inflow   model.LedgerEntry
	Transfer model.Transfer
}

// BuildTradeTransfer constructs the transfer legs for a trade. amount is the
// trade entry's signed amount (positive = buy, negative = sell); its sign
// decides direction: buys move cash into the investment account, sells move
// it back. The magnitude is the absolute trade amount in the trade's
// currency. Leg keys derive from the trade's effective id with the
// _transfer_out/_transfer_in suffixes, so legs stay idempotent independently
// of the trade entry itself.
func BuildTradeTransfer(effectiveID string, date time.Time, amount decimal.Decimal, currency, name string, cashAccountID, investmentAccountID int64) (TransferLegs, error) {
	if amount.IsZero() {
		return TransferLegs{}, fmt.Errorf("zero-amount trade %s moves no money", effectiveID)
	}
	if cashAccountID == 0 || investmentAccountID == 0 {
		return TransferLegs{}, fmt.Errorf("transfer for %s requires both accounts linked", effectiveID)
	}

	sourceID, destID := cashAccountID, investmentAccountID
	if amount.IsNegative() {
		sourceID, destID = investmentAccountID, cashAccountID
	}

	magnitude := amount.Abs()
	legs := TransferLegs{
		Outflow: model.LedgerEntry{
			LedgerAccountID: sourceID,
			ExternalID:      id.TransferOut(effectiveID),
			Source:          model.EntrySource,
			Kind:            model.EntryCash,
			Date:            date,
			Amount:          magnitude,
			Currency:        currency,
			Name:            name,
		},
		Inflow: model.LedgerEntry{
			LedgerAccountID: destID,
			ExternalID:      id.TransferIn(effectiveID),
			Source:          model.EntrySource,
			Kind:            model.EntryCash,
			Date:            date,
			Amount:          magnitude.Neg(),
			Currency:        currency,
			Name:            name,
		},
		Transfer: model.Transfer{Status: model.TransferConfirmed},
	}

	if err := ValidatePair(legs); err != nil {
		return TransferLegs{}, err
	}
	return legs, nil
}
