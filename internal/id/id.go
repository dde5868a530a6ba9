// Package id computes the effective external identifiers used for idempotent
// keying of imported broker records and their derived postings.
package id

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cleared-dev/brokersync/internal/model"
)

// External is the identity of a broker record: either the source's natural id
// or one synthesized from the record's content when the source omits it.
type External struct {
	Value       string
	Synthesized bool
}

// Effective computes the identity used for idempotent keying, exactly once
// per record. Records carry the source's natural id when present. Dividends
// characteristically omit it, so their identity is a hash of
// (isin, timestamp, amount). A non-dividend record without a natural id
// cannot be keyed and is an error.
func Effective(r model.TransactionRecord) (External, error) {
	if r.ID != "" {
		return External{Value: r.ID}, nil
	}
	if r.IsDividend() {
		return External{Value: Hash(r.ISIN, r.Time, r.Total.String()), Synthesized: true}, nil
	}
	return External{}, fmt.Errorf("record %q at %s has no external id", r.Action, r.Time)
}

// Hash returns a stable hex digest of the joined parts.
func Hash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Merchant returns the stable merchant id for a display name.
func Merchant(name string) string {
	return Hash(strings.ToLower(strings.TrimSpace(name)))
}

// TransferOut returns the idempotency key of the outflow leg synthesized for
// a trade. It is independent of the trade entry's own key.
func TransferOut(effectiveID string) string { return effectiveID + "_transfer_out" }

// TransferIn returns the idempotency key of the inflow leg synthesized for a
// trade.
func TransferIn(effectiveID string) string { return effectiveID + "_transfer_in" }
