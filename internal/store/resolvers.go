package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/brokersync/internal/id"
	"github.com/cleared-dev/brokersync/internal/model"
)

// ResolveSecurity maps a ticker symbol to a security, creating one from the
// record's isin/name on first sight. An empty ticker cannot be resolved and
// returns nil, which callers treat as "reject the trade".
func (s *Store) ResolveSecurity(ticker, isin, name string) (*model.Security, error) {
	if ticker == "" {
		return nil, nil
	}

	row := s.db.QueryRow(`SELECT id, ticker, isin, name FROM securities WHERE ticker = ?`, ticker)
	var sec model.Security
	err := row.Scan(&sec.ID, &sec.Ticker, &sec.ISIN, &sec.Name)
	if err == nil {
		return &sec, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("scanning security: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO securities (ticker, isin, name) VALUES (?, ?, ?)`, ticker, isin, name)
	if err != nil {
		return nil, fmt.Errorf("inserting security %s: %w", ticker, err)
	}
	sid, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading security id: %w", err)
	}
	return &model.Security{ID: sid, Ticker: ticker, ISIN: isin, Name: name}, nil
}

// ResolveMerchant maps a display name to a merchant entity with a stable id
// hashed from the lowercased name. An empty name resolves to nil.
func (s *Store) ResolveMerchant(name, category string) (*model.Merchant, error) {
	if name == "" {
		return nil, nil
	}

	mid := id.Merchant(name)
	if _, err := s.db.Exec(
		`INSERT INTO merchants (id, name, category) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`, mid, name, category,
	); err != nil {
		return nil, fmt.Errorf("inserting merchant %s: %w", name, err)
	}
	return &model.Merchant{ID: mid, Name: name, Category: category}, nil
}

// UpsertOpeningAnchor writes the opening-balance anchor valuation for a
// ledger account, replacing any previous anchor.
func (s *Store) UpsertOpeningAnchor(ledgerAccountID int64, date time.Time, balance decimal.Decimal) error {
	if _, err := s.db.Exec(
		`INSERT INTO valuations (ledger_account_id, kind, date, balance) VALUES (?, ?, ?, ?)
		 ON CONFLICT(ledger_account_id, kind) DO UPDATE SET date = excluded.date, balance = excluded.balance`,
		ledgerAccountID, model.ValuationOpeningAnchor, date.UTC().Format(dateFormat), balance.String(),
	); err != nil {
		return fmt.Errorf("upserting opening anchor: %w", err)
	}
	return nil
}

// OpeningAnchor returns an account's opening anchor valuation, or nil.
func (s *Store) OpeningAnchor(ledgerAccountID int64) (*model.Valuation, error) {
	row := s.db.QueryRow(
		`SELECT ledger_account_id, date, balance FROM valuations WHERE ledger_account_id = ? AND kind = ?`,
		ledgerAccountID, model.ValuationOpeningAnchor)

	var v model.Valuation
	var date, balance string
	err := row.Scan(&v.LedgerAccountID, &date, &balance)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning valuation: %w", err)
	}
	v.Kind = model.ValuationOpeningAnchor
	if v.Date, err = time.Parse(dateFormat, date); err != nil {
		return nil, fmt.Errorf("parsing valuation date: %w", err)
	}
	if v.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parsing valuation balance: %w", err)
	}
	return &v, nil
}
