package sync

import (
	"github.com/accessly/prefsync/internal/models"
)

// Actions accepted by the sync endpoint.
const (
	ActionExport          = "export"
	ActionImport          = "import"
	ActionSync            = "sync"
	ActionStatus          = "status"
	ActionResolveConflict = "resolve_conflict"
	ActionSave            = "save"
)

// Request is the decoded sync envelope. Action selects the operation;
// the remaining fields are action-specific and ignored elsewhere.
// ClientVersion is the client build identifier, unrelated to the
// document version.
type Request struct {
	Action        string `json:"action" validate:"required,oneof=export import sync status resolve_conflict"`
	Source        string `json:"source" validate:"max=64"`
	DeviceID      string `json:"device_id" validate:"max=128"`
	ClientVersion string `json:"client_version" validate:"max=64"`

	// import
	Data               *ImportData `json:"data,omitempty"`
	ConflictResolution string      `json:"conflict_resolution,omitempty" validate:"omitempty,max=32"`

	// sync
	Settings     map[string]any         `json:"settings,omitempty"`
	Metadata     *models.ClientMetadata `json:"metadata,omitempty"`
	SyncStrategy string                 `json:"sync_strategy,omitempty" validate:"omitempty,max=32"`

	// resolve_conflict
	ClientSettings map[string]any `json:"client_settings,omitempty"`
	ServerSettings map[string]any `json:"server_settings,omitempty"`
	Resolution     string         `json:"resolution,omitempty" validate:"omitempty,max=32"`
	MergedSettings map[string]any `json:"merged_settings,omitempty"`
}

// ImportData is the payload of an import request: the settings body being
// imported plus the metadata the exporting side recorded.
type ImportData struct {
	Settings map[string]any         `json:"settings"`
	Metadata *models.ClientMetadata `json:"metadata,omitempty"`
}

// ExportInfo describes the provenance of an export.
type ExportInfo struct {
	ExportDate    string `json:"export_date"`
	UserID        string `json:"user_id"`
	Source        string `json:"source"`
	DeviceID      string `json:"device_id"`
	ClientVersion string `json:"client_version"`
	FormatVersion string `json:"format_version"`
}

// ExportResult is the payload of a successful export. Metadata is nil when
// the user has no document yet.
type ExportResult struct {
	Settings   map[string]any           `json:"settings"`
	Metadata   *models.DocumentMetadata `json:"metadata,omitempty"`
	ExportInfo ExportInfo               `json:"export_info"`
}

type ImportResult struct {
	ImportedCount    int                     `json:"imported_count"`
	ConflictResolved bool                    `json:"conflict_resolved"`
	Metadata         models.DocumentMetadata `json:"metadata"`
}

// SyncOutcome summarizes what a two-way sync did.
type SyncOutcome struct {
	Strategy            string `json:"strategy"`
	Merged              bool   `json:"merged"`
	ClientSettingsCount int    `json:"client_settings_count"`
	ServerSettingsCount int    `json:"server_settings_count"`
}

type SyncResult struct {
	Settings map[string]any          `json:"settings"`
	Metadata models.DocumentMetadata `json:"metadata"`
	Outcome  SyncOutcome             `json:"sync_result"`
}

// StatusResult reports the document's version state, history retention and
// recent audit trail. Version 0 with a nil LastSync means the user has no
// document yet.
type StatusResult struct {
	CurrentVersion int64               `json:"current_version"`
	LastSync       *int64              `json:"last_sync,omitempty"`
	BackupCount    int                 `json:"backup_count"`
	LastBackup     *int64              `json:"last_backup,omitempty"`
	DeviceID       string              `json:"device_id"`
	RecentEvents   []*models.SyncEvent `json:"recent_events"`
}

type ResolveResult struct {
	Resolution string                  `json:"resolution"`
	Metadata   models.DocumentMetadata `json:"metadata"`
}

type SaveResult struct {
	SavedCount int                     `json:"saved_count"`
	Metadata   models.DocumentMetadata `json:"metadata"`
}

// GetResult is the payload of a plain settings read. Defaulted is true when
// the user has no document and the built-in defaults were returned.
type GetResult struct {
	Settings  map[string]any          `json:"settings"`
	Metadata  models.DocumentMetadata `json:"metadata"`
	Defaulted bool                    `json:"defaulted"`
}
