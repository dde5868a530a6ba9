package ledger

import (
	"fmt"
	"strings"
)

// ValidatePair enforces the invariants of a synthesized transfer pair:
// the legs net to zero, the outflow is the positive side, both legs share a
// currency, post to different accounts, and are keyed off the same trade.
func ValidatePair(legs TransferLegs) error {
	out, in := legs.Outflow, legs.Inflow

	if !out.Amount.Add(in.Amount).IsZero() {
		return fmt.Errorf("transfer legs do not balance: %s + %s", out.Amount, in.Amount)
	}
	if !out.Amount.IsPositive() {
		return fmt.Errorf("outflow leg must be positive, got %s", out.Amount)
	}
	if out.Currency != in.Currency {
		return fmt.Errorf("transfer legs differ in currency: %s vs %s", out.Currency, in.Currency)
	}
	if out.LedgerAccountID == in.LedgerAccountID {
		return fmt.Errorf("transfer legs post to the same account %d", out.LedgerAccountID)
	}

	outBase := strings.TrimSuffix(out.ExternalID, "_transfer_out")
	inBase := strings.TrimSuffix(in.ExternalID, "_transfer_in")
	if outBase == out.ExternalID || inBase == in.ExternalID || outBase != inBase {
		return fmt.Errorf("transfer leg keys %q / %q are not a pair", out.ExternalID, in.ExternalID)
	}
	return nil
}
