package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/accessly/prefsync/internal/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// HistoryStats summarizes a user's retained history snapshots.
type HistoryStats struct {
	Count      int
	LastBackup *time.Time
}

// DocumentRepository persists one versioned settings document per user plus
// a bounded change history. Put must be atomic with respect to concurrent
// calls for the same owner: every completed call yields a distinct,
// strictly increasing version.
type DocumentRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.SettingsDocument, error)
	Put(ctx context.Context, userID uuid.UUID, body map[string]any) (*models.SettingsDocument, error)
	AppendHistory(ctx context.Context, userID uuid.UUID, body map[string]any) error
	ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.HistoryEntry, error)
	HistoryStats(ctx context.Context, userID uuid.UUID) (HistoryStats, error)
}

// SyncEventRepository is the append-only audit log of sync operations.
type SyncEventRepository interface {
	Append(ctx context.Context, event *models.SyncEvent) error
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SyncEvent, error)
}

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}
