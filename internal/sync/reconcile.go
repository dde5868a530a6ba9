package sync

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/brokersync/internal/model"
	"github.com/cleared-dev/brokersync/internal/store"
)

// SnapshotStore is the persistence surface reconciliation writes through.
// *store.Store satisfies it.
type SnapshotStore interface {
	UpdateLedgerAccountSnapshot(id int64, balance, available decimal.Decimal, currency string) error
	UpsertOpeningAnchor(ledgerAccountID int64, date time.Time, balance decimal.Decimal) error
	StoredRecords(brokerAccountID int64) ([]store.StoredRecord, error)
}

// Reconciler pushes broker-reported balances onto linked ledger accounts and
// anchors the opening balance one day before the earliest known record, so
// the imported history sums from a well-defined zero.
type Reconciler struct {
	store           SnapshotStore
	defaultCurrency string
	log             zerolog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(st SnapshotStore, defaultCurrency string, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:           st,
		defaultCurrency: defaultCurrency,
		log:             log.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile updates the linked ledger account's snapshot from the broker
// account and re-anchors its opening balance. Unlinked accounts are a no-op.
func (r *Reconciler) Reconcile(acct model.BrokerAccount) error {
	if !acct.Linked() {
		r.log.Debug().Str("account", acct.ExternalID).Msg("skipping reconciliation for unlinked account")
		return nil
	}

	currency := model.NormalizeCurrency(acct.Currency)
	if currency == "" {
		currency = r.defaultCurrency
	}
	if err := r.store.UpdateLedgerAccountSnapshot(acct.LedgerAccountID, acct.Balance, acct.AvailableBalance, currency); err != nil {
		return fmt.Errorf("updating snapshot for %s: %w", acct.ExternalID, err)
	}

	records, err := r.store.StoredRecords(acct.ID)
	if err != nil {
		return fmt.Errorf("loading records for %s: %w", acct.ExternalID, err)
	}
	earliest, ok := earliestRecordDate(records)
	if !ok {
		return nil
	}

	// The anchor sits one day before the first record so that record itself
	// is already part of the tracked history.
	anchor := earliest.AddDate(0, 0, -1)
	if err := r.store.UpsertOpeningAnchor(acct.LedgerAccountID, anchor, decimal.Zero); err != nil {
		return fmt.Errorf("anchoring opening balance for %s: %w", acct.ExternalID, err)
	}

	r.log.Debug().Str("account", acct.ExternalID).Str("anchor", anchor.Format("2006-01-02")).
		Msg("account reconciled")
	return nil
}

// earliestRecordDate scans the record store for the oldest parseable record
// time. Records with malformed times are skipped rather than failing the
// reconciliation.
func earliestRecordDate(records []store.StoredRecord) (time.Time, bool) {
	var earliest time.Time
	var found bool
	for _, sr := range records {
		t, err := sr.Record.ParseTime()
		if err != nil {
			continue
		}
		if !found || t.Before(earliest) {
			earliest = t
			found = true
		}
	}
	return earliest, found
}
