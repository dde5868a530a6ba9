package model

import "time"

// ConnectionStatus is the lifecycle state of a broker connection.
type ConnectionStatus string

const (
	ConnectionActive         ConnectionStatus = "active"
	ConnectionRequiresUpdate ConnectionStatus = "requires_update"
)

// Connection holds the credentials for one remote brokerage relationship.
// A connection owns exactly one cash and one investment BrokerAccount once
// the remote account has been discovered.
type Connection struct {
	ID           string
	Name         string
	APIKey       string
	APISecret    string
	Status       ConnectionStatus
	LastSyncedAt *time.Time
}
