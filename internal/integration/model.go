package integration

import (
	"time"

	"github.com/google/uuid"
)

// Connection status values persisted on user_integrations rows.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// UserIntegration represents a row in the user_integrations table: one
// vendor configuration for one user. At most one row exists per
// (user, vendor) pair.
type UserIntegration struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Vendor       string
	Config       map[string]any
	Status       string
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
