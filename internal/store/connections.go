package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cleared-dev/brokersync/internal/model"
)

// CreateConnection inserts a new connection in the active state.
func (s *Store) CreateConnection(c model.Connection) error {
	_, err := s.db.Exec(
		`INSERT INTO connections (id, name, api_key, api_secret, status) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.APIKey, c.APISecret, string(model.ConnectionActive),
	)
	if err != nil {
		return fmt.Errorf("inserting connection: %w", err)
	}
	return nil
}

// GetConnection returns a connection by id, or nil when absent.
func (s *Store) GetConnection(connID string) (*model.Connection, error) {
	row := s.db.QueryRow(
		`SELECT id, name, api_key, api_secret, status, last_synced_at FROM connections WHERE id = ?`, connID)
	return scanConnection(row)
}

// GetConnectionByName returns a connection by its display name, or nil.
func (s *Store) GetConnectionByName(name string) (*model.Connection, error) {
	row := s.db.QueryRow(
		`SELECT id, name, api_key, api_secret, status, last_synced_at FROM connections WHERE name = ?`, name)
	return scanConnection(row)
}

func scanConnection(row *sql.Row) (*model.Connection, error) {
	var c model.Connection
	var status string
	var lastSynced sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.APIKey, &c.APISecret, &status, &lastSynced)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning connection: %w", err)
	}
	c.Status = model.ConnectionStatus(status)
	if lastSynced.Valid {
		t, err := time.Parse(time.RFC3339, lastSynced.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_synced_at: %w", err)
		}
		c.LastSyncedAt = &t
	}
	return &c, nil
}

// ListConnections returns all connections ordered by name.
func (s *Store) ListConnections() ([]model.Connection, error) {
	rows, err := s.db.Query(
		`SELECT id, name, api_key, api_secret, status, last_synced_at FROM connections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	defer rows.Close()

	var conns []model.Connection
	for rows.Next() {
		var c model.Connection
		var status string
		var lastSynced sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.APIKey, &c.APISecret, &status, &lastSynced); err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		c.Status = model.ConnectionStatus(status)
		if lastSynced.Valid {
			t, err := time.Parse(time.RFC3339, lastSynced.String)
			if err != nil {
				return nil, fmt.Errorf("parsing last_synced_at: %w", err)
			}
			c.LastSyncedAt = &t
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// SetConnectionStatus transitions a connection's lifecycle state. The syncer
// calls this with requires_update when the remote API rejects credentials and
// with active after the next successful authenticated call.
func (s *Store) SetConnectionStatus(connID string, status model.ConnectionStatus) error {
	if _, err := s.db.Exec(`UPDATE connections SET status = ? WHERE id = ?`, string(status), connID); err != nil {
		return fmt.Errorf("updating connection status: %w", err)
	}
	return nil
}

// StampConnectionSynced records the wall-clock time of a successful sync.
func (s *Store) StampConnectionSynced(connID string, at time.Time) error {
	if _, err := s.db.Exec(
		`UPDATE connections SET last_synced_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), connID,
	); err != nil {
		return fmt.Errorf("stamping connection sync time: %w", err)
	}
	return nil
}
