package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/brokersync/internal/model"
)

const dateFormat = "2006-01-02"

// UpsertEntry finds a ledger entry by its (account, external id, source) key,
// creating it when absent and otherwise correcting its attributes in place.
// An entry is never duplicated for a key. Reports whether it was created.
func (s *Store) UpsertEntry(e model.LedgerEntry) (model.LedgerEntry, bool, error) {
	existing, err := s.getEntryByKey(e.Key())
	if err != nil {
		return model.LedgerEntry{}, false, err
	}

	if existing == nil {
		res, err := s.db.Exec(
			`INSERT INTO entries (ledger_account_id, external_id, source, kind, date, amount, currency,
			                      name, notes, quantity, price_per_share, price_currency, security_id, merchant_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.LedgerAccountID, e.ExternalID, e.Source, string(e.Kind), e.Date.UTC().Format(dateFormat),
			e.Amount.String(), e.Currency, e.Name, e.Notes, e.Quantity.String(), e.PricePerShare.String(),
			e.PriceCurrency, e.SecurityID, e.MerchantID,
		)
		if err != nil {
			return model.LedgerEntry{}, false, fmt.Errorf("inserting entry %s: %w", e.ExternalID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.LedgerEntry{}, false, fmt.Errorf("reading entry id: %w", err)
		}
		e.ID = id
		return e, true, nil
	}

	_, err = s.db.Exec(
		`UPDATE entries SET kind = ?, date = ?, amount = ?, currency = ?, name = ?, notes = ?,
		        quantity = ?, price_per_share = ?, price_currency = ?, security_id = ?, merchant_id = ?
		 WHERE id = ?`,
		string(e.Kind), e.Date.UTC().Format(dateFormat), e.Amount.String(), e.Currency, e.Name, e.Notes,
		e.Quantity.String(), e.PricePerShare.String(), e.PriceCurrency, e.SecurityID, e.MerchantID,
		existing.ID,
	)
	if err != nil {
		return model.LedgerEntry{}, false, fmt.Errorf("updating entry %s: %w", e.ExternalID, err)
	}
	e.ID = existing.ID
	return e, false, nil
}

func (s *Store) getEntryByKey(key model.EntryKey) (*model.LedgerEntry, error) {
	row := s.db.QueryRow(
		`SELECT id, ledger_account_id, external_id, source, kind, date, amount, currency,
		        name, notes, quantity, price_per_share, price_currency, security_id, merchant_id
		 FROM entries WHERE ledger_account_id = ? AND external_id = ? AND source = ?`,
		key.LedgerAccountID, key.ExternalID, key.Source)
	e, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}
	return &e, nil
}

// EntriesForAccount returns an account's entries ordered by date.
func (s *Store) EntriesForAccount(ledgerAccountID int64) ([]model.LedgerEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, ledger_account_id, external_id, source, kind, date, amount, currency,
		        name, notes, quantity, price_per_share, price_currency, security_id, merchant_id
		 FROM entries WHERE ledger_account_id = ? ORDER BY date, id`, ledgerAccountID)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountEntries returns the number of entries for an account key prefix; used
// by tests to assert idempotency.
func (s *Store) CountEntries(ledgerAccountID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM entries WHERE ledger_account_id = ?`, ledgerAccountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

func scanEntry(scan func(...any) error) (model.LedgerEntry, error) {
	var e model.LedgerEntry
	var kind, date, amount, quantity, price string
	if err := scan(&e.ID, &e.LedgerAccountID, &e.ExternalID, &e.Source, &kind, &date, &amount, &e.Currency,
		&e.Name, &e.Notes, &quantity, &price, &e.PriceCurrency, &e.SecurityID, &e.MerchantID); err != nil {
		return model.LedgerEntry{}, err
	}
	e.Kind = model.EntryKind(kind)

	var err error
	if e.Date, err = time.Parse(dateFormat, date); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing entry date: %w", err)
	}
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing entry amount: %w", err)
	}
	if e.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing entry quantity: %w", err)
	}
	if e.PricePerShare, err = decimal.NewFromString(price); err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing entry price: %w", err)
	}
	return e, nil
}

// UpsertTransfer finds a transfer by its entry pair, creating it when absent.
func (s *Store) UpsertTransfer(outflowEntryID, inflowEntryID int64, status string) (model.Transfer, bool, error) {
	row := s.db.QueryRow(
		`SELECT id, outflow_entry_id, inflow_entry_id, status FROM transfers
		 WHERE outflow_entry_id = ? AND inflow_entry_id = ?`, outflowEntryID, inflowEntryID)

	var t model.Transfer
	err := row.Scan(&t.ID, &t.OutflowEntry, &t.InflowEntry, &t.Status)
	if err == nil {
		return t, false, nil
	}
	if err != sql.ErrNoRows {
		return model.Transfer{}, false, fmt.Errorf("scanning transfer: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO transfers (outflow_entry_id, inflow_entry_id, status) VALUES (?, ?, ?)`,
		outflowEntryID, inflowEntryID, status)
	if err != nil {
		return model.Transfer{}, false, fmt.Errorf("inserting transfer: %w", err)
	}
	tid, err := res.LastInsertId()
	if err != nil {
		return model.Transfer{}, false, fmt.Errorf("reading transfer id: %w", err)
	}
	return model.Transfer{ID: tid, OutflowEntry: outflowEntryID, InflowEntry: inflowEntryID, Status: status}, true, nil
}

// CountTransfers returns the total number of transfers.
func (s *Store) CountTransfers() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM transfers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting transfers: %w", err)
	}
	return n, nil
}
