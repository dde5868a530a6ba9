package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/brokersync/internal/model"
)

// UpsertBrokerAccount finds a broker account by its (connection, external id)
// key, creating it when absent. On both paths the snapshot balances, currency
// and kind are refreshed from the argument; the ledger-account link is left
// untouched. Reports whether the account was created.
func (s *Store) UpsertBrokerAccount(a model.BrokerAccount) (model.BrokerAccount, bool, error) {
	existing, err := s.getBrokerAccountByKey(a.ConnectionID, a.ExternalID)
	if err != nil {
		return model.BrokerAccount{}, false, err
	}

	if existing == nil {
		res, err := s.db.Exec(
			`INSERT INTO broker_accounts (connection_id, external_id, kind, currency, balance, available_balance)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ConnectionID, a.ExternalID, string(a.Kind), a.Currency, a.Balance.String(), a.AvailableBalance.String(),
		)
		if err != nil {
			return model.BrokerAccount{}, false, fmt.Errorf("inserting broker account: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.BrokerAccount{}, false, fmt.Errorf("reading broker account id: %w", err)
		}
		a.ID = id
		a.LedgerAccountID = 0
		return a, true, nil
	}

	_, err = s.db.Exec(
		`UPDATE broker_accounts SET kind = ?, currency = ?, balance = ?, available_balance = ? WHERE id = ?`,
		string(a.Kind), a.Currency, a.Balance.String(), a.AvailableBalance.String(), existing.ID,
	)
	if err != nil {
		return model.BrokerAccount{}, false, fmt.Errorf("updating broker account: %w", err)
	}
	a.ID = existing.ID
	a.LedgerAccountID = existing.LedgerAccountID
	return a, false, nil
}

func (s *Store) getBrokerAccountByKey(connID, externalID string) (*model.BrokerAccount, error) {
	row := s.db.QueryRow(
		`SELECT id, connection_id, external_id, kind, currency, balance, available_balance, ledger_account_id
		 FROM broker_accounts WHERE connection_id = ? AND external_id = ?`, connID, externalID)
	a, err := scanBrokerAccount(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning broker account: %w", err)
	}
	return &a, nil
}

// BrokerAccounts returns a connection's broker accounts, cash side first.
func (s *Store) BrokerAccounts(connID string) ([]model.BrokerAccount, error) {
	rows, err := s.db.Query(
		`SELECT id, connection_id, external_id, kind, currency, balance, available_balance, ledger_account_id
		 FROM broker_accounts WHERE connection_id = ? ORDER BY kind`, connID)
	if err != nil {
		return nil, fmt.Errorf("listing broker accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.BrokerAccount
	for rows.Next() {
		a, err := scanBrokerAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning broker account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanBrokerAccount(scan func(...any) error) (model.BrokerAccount, error) {
	var a model.BrokerAccount
	var kind, balance, available string
	if err := scan(&a.ID, &a.ConnectionID, &a.ExternalID, &kind, &a.Currency, &balance, &available, &a.LedgerAccountID); err != nil {
		return model.BrokerAccount{}, err
	}
	a.Kind = model.AccountKind(kind)
	var err error
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return model.BrokerAccount{}, fmt.Errorf("parsing balance: %w", err)
	}
	if a.AvailableBalance, err = decimal.NewFromString(available); err != nil {
		return model.BrokerAccount{}, fmt.Errorf("parsing available balance: %w", err)
	}
	return a, nil
}

// LinkBrokerAccount associates a broker account with a local ledger account.
func (s *Store) LinkBrokerAccount(brokerAccountID, ledgerAccountID int64) error {
	if _, err := s.db.Exec(
		`UPDATE broker_accounts SET ledger_account_id = ? WHERE id = ?`,
		ledgerAccountID, brokerAccountID,
	); err != nil {
		return fmt.Errorf("linking broker account: %w", err)
	}
	return nil
}

// CreateLedgerAccount inserts a local ledger account and returns it with its
// assigned id.
func (s *Store) CreateLedgerAccount(name, currency string) (model.LedgerAccount, error) {
	res, err := s.db.Exec(
		`INSERT INTO ledger_accounts (name, currency) VALUES (?, ?)`, name, currency)
	if err != nil {
		return model.LedgerAccount{}, fmt.Errorf("inserting ledger account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.LedgerAccount{}, fmt.Errorf("reading ledger account id: %w", err)
	}
	return model.LedgerAccount{ID: id, Name: name, Currency: currency}, nil
}

// GetLedgerAccount returns a ledger account by id, or nil when absent.
func (s *Store) GetLedgerAccount(id int64) (*model.LedgerAccount, error) {
	row := s.db.QueryRow(
		`SELECT id, name, currency, balance, available_balance FROM ledger_accounts WHERE id = ?`, id)

	var a model.LedgerAccount
	var balance, available string
	err := row.Scan(&a.ID, &a.Name, &a.Currency, &balance, &available)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ledger account: %w", err)
	}
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parsing balance: %w", err)
	}
	if a.AvailableBalance, err = decimal.NewFromString(available); err != nil {
		return nil, fmt.Errorf("parsing available balance: %w", err)
	}
	return &a, nil
}

// UpdateLedgerAccountSnapshot writes the broker-reported balances and
// normalized currency onto a ledger account.
func (s *Store) UpdateLedgerAccountSnapshot(id int64, balance, available decimal.Decimal, currency string) error {
	if _, err := s.db.Exec(
		`UPDATE ledger_accounts SET balance = ?, available_balance = ?, currency = ? WHERE id = ?`,
		balance.String(), available.String(), currency, id,
	); err != nil {
		return fmt.Errorf("updating ledger account snapshot: %w", err)
	}
	return nil
}
