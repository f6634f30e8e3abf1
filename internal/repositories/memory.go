package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/accessly/prefsync/internal/models"
	"github.com/accessly/prefsync/internal/settings"
	"github.com/google/uuid"
)

// MemoryDocumentRepository is a process-local DocumentRepository used by
// tests and local development. It provides the same atomicity guarantee as
// the postgres implementation: Put serializes per call under the lock, so
// concurrent writers always observe distinct, strictly increasing versions.
type MemoryDocumentRepository struct {
	mu          sync.RWMutex
	historyKeep int
	docs        map[uuid.UUID]*models.SettingsDocument
	history     map[uuid.UUID][]*models.HistoryEntry
	seq         int64
	now         func() time.Time
}

func NewMemoryDocumentRepository(historyKeep int) *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		historyKeep: historyKeep,
		docs:        make(map[uuid.UUID]*models.SettingsDocument),
		history:     make(map[uuid.UUID][]*models.HistoryEntry),
		now:         time.Now,
	}
}

func (r *MemoryDocumentRepository) Get(ctx context.Context, userID uuid.UUID) (*models.SettingsDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *doc
	copied.Body = settings.CloneBody(doc.Body)
	return &copied, nil
}

func (r *MemoryDocumentRepository) Put(ctx context.Context, userID uuid.UUID, body map[string]any) (*models.SettingsDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	doc, ok := r.docs[userID]
	if !ok {
		doc = &models.SettingsDocument{
			UserID:    userID,
			Version:   1,
			CreatedAt: now,
		}
		r.docs[userID] = doc
	} else {
		doc.Version++
	}
	doc.Body = settings.CloneBody(body)
	doc.UpdatedAt = now

	copied := *doc
	copied.Body = settings.CloneBody(doc.Body)
	return &copied, nil
}

func (r *MemoryDocumentRepository) AppendHistory(ctx context.Context, userID uuid.UUID, body map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	entry := &models.HistoryEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Body:      settings.CloneBody(body),
		CreatedAt: r.now().Add(time.Duration(r.seq)), // keep ordering stable within one tick
	}
	entries := append(r.history[userID], entry)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > r.historyKeep {
		entries = entries[:r.historyKeep]
	}
	r.history[userID] = entries
	return nil
}

func (r *MemoryDocumentRepository) ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.history[userID]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]*models.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (r *MemoryDocumentRepository) HistoryStats(ctx context.Context, userID uuid.UUID) (HistoryStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.history[userID]
	stats := HistoryStats{Count: len(entries)}
	if len(entries) > 0 {
		last := entries[0].CreatedAt
		stats.LastBackup = &last
	}
	return stats, nil
}

// MemorySyncEventRepository is the in-memory counterpart of the sync event
// audit log.
type MemorySyncEventRepository struct {
	mu     sync.RWMutex
	events map[uuid.UUID][]*models.SyncEvent
}

func NewMemorySyncEventRepository() *MemorySyncEventRepository {
	return &MemorySyncEventRepository{events: make(map[uuid.UUID][]*models.SyncEvent)}
}

func (r *MemorySyncEventRepository) Append(ctx context.Context, event *models.SyncEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = uuid.New()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	copied := *event
	// prepend: Recent returns newest first
	r.events[event.UserID] = append([]*models.SyncEvent{&copied}, r.events[event.UserID]...)
	return nil
}

func (r *MemorySyncEventRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.SyncEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[userID]
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	out := make([]*models.SyncEvent, len(events))
	copy(out, events)
	return out, nil
}
