package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is an immutable snapshot of a past document body. At most a
// bounded number of entries are retained per user; older entries are pruned.
type HistoryEntry struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Body      map[string]any `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
}
