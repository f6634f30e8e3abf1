package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncEvent is an append-only audit row recording one sync-related operation.
// It is used for status reporting and diagnostics only; it is never
// authoritative for conflict resolution.
type SyncEvent struct {
	ID        uuid.UUID `json:"-"`
	UserID    uuid.UUID `json:"-"`
	Action    string    `json:"action"`
	Source    string    `json:"source"`
	DeviceID  string    `json:"device_id"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}
