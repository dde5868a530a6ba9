package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cleared-dev/brokersync/internal/model"
)

// StoredRecord is one row of a broker account's append-only record store.
type StoredRecord struct {
	EffectiveID string
	Record      model.TransactionRecord
}

// StoredRecords returns a broker account's record store in insertion order.
func (s *Store) StoredRecords(brokerAccountID int64) ([]StoredRecord, error) {
	rows, err := s.db.Query(
		`SELECT effective_id, payload FROM broker_records WHERE broker_account_id = ? ORDER BY id`,
		brokerAccountID)
	if err != nil {
		return nil, fmt.Errorf("listing broker records: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var sr StoredRecord
		var payload string
		if err := rows.Scan(&sr.EffectiveID, &payload); err != nil {
			return nil, fmt.Errorf("scanning broker record: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &sr.Record); err != nil {
			return nil, fmt.Errorf("decoding broker record %s: %w", sr.EffectiveID, err)
		}
		records = append(records, sr)
	}
	return records, rows.Err()
}

// AppendRecords appends new records to a broker account's record store. The
// store is append-only: rows are never rewritten, and the unique
// (account, effective id) key makes a replayed append a no-op.
func (s *Store) AppendRecords(brokerAccountID int64, records []StoredRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for _, sr := range records {
		payload, err := json.Marshal(sr.Record)
		if err != nil {
			return fmt.Errorf("encoding broker record %s: %w", sr.EffectiveID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO broker_records (broker_account_id, effective_id, payload, fetched_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(broker_account_id, effective_id) DO NOTHING`,
			brokerAccountID, sr.EffectiveID, string(payload), fetchedAt,
		); err != nil {
			return fmt.Errorf("appending broker record %s: %w", sr.EffectiveID, err)
		}
	}
	return tx.Commit()
}
