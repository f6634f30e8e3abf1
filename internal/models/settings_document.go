package models

import (
	"time"

	"github.com/google/uuid"
)

// SettingsDocument is the single live preference document for a user.
// Body holds the full preference tree as decoded JSON. Version starts at 1
// and increments by exactly 1 on every successful write; it never decreases
// and is never reused.
type SettingsDocument struct {
	UserID    uuid.UUID      `json:"user_id"`
	Body      map[string]any `json:"body"`
	Version   int64          `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Metadata returns the wire-level view of the document's version state.
func (d *SettingsDocument) Metadata() DocumentMetadata {
	if d == nil {
		return DocumentMetadata{}
	}
	return DocumentMetadata{
		Version:      d.Version,
		LastModified: d.UpdatedAt.Unix(),
	}
}
