package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessly/prefsync/internal/models"
	"github.com/accessly/prefsync/internal/repositories"
)

func newTestService(t *testing.T) (*Service, *repositories.MemoryDocumentRepository, *repositories.MemorySyncEventRepository) {
	t.Helper()
	docs := repositories.NewMemoryDocumentRepository(10)
	events := repositories.NewMemorySyncEventRepository()
	return NewService(docs, events, zerolog.Nop()), docs, events
}

func seedDocument(t *testing.T, docs *repositories.MemoryDocumentRepository, userID uuid.UUID, body map[string]any, writes int) *models.SettingsDocument {
	t.Helper()
	var doc *models.SettingsDocument
	var err error
	for i := 0; i < writes; i++ {
		doc, err = docs.Put(context.Background(), userID, body)
		require.NoError(t, err)
	}
	return doc
}

func engineError(t *testing.T, err error) *Error {
	t.Helper()
	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	return engineErr
}

func TestExport_AbsentDocumentReturnsEmptyBody(t *testing.T) {
	svc, _, events := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	result, err := svc.Export(ctx, userID, &Request{Action: ActionExport, Source: "web", DeviceID: "d1"})

	require.NoError(t, err)
	assert.Empty(t, result.Settings)
	assert.Nil(t, result.Metadata)
	assert.Equal(t, userID.String(), result.ExportInfo.UserID)
	assert.Equal(t, "2.0", result.ExportInfo.FormatVersion)

	recent, err := events.Recent(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ActionExport, recent[0].Action)
	assert.True(t, recent[0].Success)
}

func TestExport_StripsSensitiveKeysAndAddsChecksum(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	seedDocument(t, docs, userID, map[string]any{
		"theme":     "dark",
		"_metadata": map[string]any{"modified_by": "server"},
	}, 1)

	result, err := svc.Export(ctx, userID, &Request{Action: ActionExport})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "dark"}, result.Settings)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, int64(1), result.Metadata.Version)
	assert.NotEmpty(t, result.Metadata.Checksum)
}

func TestExportImport_RoundTrip(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	seedDocument(t, docs, userID, map[string]any{"theme": "dark", "tts": map[string]any{"rate": 1.0}}, 1)

	exported, err := svc.Export(ctx, userID, &Request{Action: ActionExport})
	require.NoError(t, err)

	result, err := svc.Import(ctx, userID, &Request{
		Action:             ActionImport,
		ConflictResolution: "client",
		Data:               &ImportData{Settings: exported.Settings},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Metadata.Version)

	doc, err := docs.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, exported.Settings, doc.Body)
}

func TestImport_MissingDataRejected(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Import(ctx, userID, &Request{Action: ActionImport})

	assert.Equal(t, CodeValidationFailed, engineError(t, err).Code)
	_, err = docs.Get(ctx, userID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestImport_StaleClientWithServerResolutionRejected(t *testing.T) {
	svc, docs, events := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	doc := seedDocument(t, docs, userID, map[string]any{"theme": "dark"}, 1)

	_, err := svc.Import(ctx, userID, &Request{
		Action: ActionImport,
		Data: &ImportData{
			Settings: map[string]any{"theme": "light"},
			Metadata: &models.ClientMetadata{LastModified: doc.UpdatedAt.Unix() - 60},
		},
	})

	engineErr := engineError(t, err)
	assert.Equal(t, CodeConflictDetected, engineErr.Code)
	assert.Equal(t, int64(1), engineErr.ServerVersion)

	// No write happened.
	current, err := docs.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current.Version)
	assert.Equal(t, "dark", current.Body["theme"])

	// The failed attempt is still audited.
	recent, err := events.Recent(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ActionImport, recent[0].Action)
	assert.False(t, recent[0].Success)
}

func TestImport_StaleClientWithMergeResolution(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	doc := seedDocument(t, docs, userID, map[string]any{"theme": "dark", "language": "de"}, 1)

	result, err := svc.Import(ctx, userID, &Request{
		Action:             ActionImport,
		ConflictResolution: "merge",
		Data: &ImportData{
			Settings: map[string]any{"theme": "light"},
			Metadata: &models.ClientMetadata{LastModified: doc.UpdatedAt.Unix() - 60},
		},
	})

	require.NoError(t, err)
	assert.True(t, result.ConflictResolved)

	current, err := docs.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "light", current.Body["theme"])
	assert.Equal(t, "de", current.Body["language"])
	assert.Equal(t, int64(2), current.Version)
}

func TestSync_MergeStrategyCombinesAndBumpsVersion(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	seedDocument(t, docs, userID, map[string]any{"theme": "dark", "tts": map[string]any{"rate": 1.0}}, 3)

	result, err := svc.Sync(ctx, userID, &Request{
		Action:       ActionSync,
		SyncStrategy: "merge",
		Settings:     map[string]any{"theme": "light", "tts": map[string]any{"pitch": 1.2}},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"theme": "light",
		"tts":   map[string]any{"rate": 1.0, "pitch": 1.2},
	}, result.Settings)
	assert.Equal(t, int64(4), result.Metadata.Version)
	assert.True(t, result.Outcome.Merged)
	assert.Equal(t, "merge", result.Outcome.Strategy)
}

func TestSync_DefaultStrategyIsServerWins(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	seedDocument(t, docs, userID, map[string]any{"theme": "dark"}, 1)

	result, err := svc.Sync(ctx, userID, &Request{
		Action:   ActionSync,
		Settings: map[string]any{"theme": "light"},
	})

	require.NoError(t, err)
	assert.Equal(t, "server_wins", result.Outcome.Strategy)
	assert.Equal(t, "dark", result.Settings["theme"])
	// Nothing changed, so no version bump.
	assert.False(t, result.Outcome.Merged)
	assert.Equal(t, int64(1), result.Metadata.Version)
}

func TestSync_UnknownStrategyRejected(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Sync(ctx, userID, &Request{Action: ActionSync, SyncStrategy: "freestyle"})

	assert.Equal(t, CodeValidationFailed, engineError(t, err).Code)
	_, err = docs.Get(ctx, userID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestStatus_EmptyUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Status(ctx, uuid.New(), &Request{Action: ActionStatus, DeviceID: "d9"})

	require.NoError(t, err)
	assert.Equal(t, int64(0), result.CurrentVersion)
	assert.Nil(t, result.LastSync)
	assert.Equal(t, 0, result.BackupCount)
	assert.Nil(t, result.LastBackup)
	assert.Equal(t, "d9", result.DeviceID)
	assert.Empty(t, result.RecentEvents)
}

func TestStatus_ReportsVersionHistoryAndEvents(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Save(ctx, userID, map[string]any{"theme": "dark"}, &Request{Source: "web"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, userID, map[string]any{"theme": "light"}, &Request{Source: "web"})
	require.NoError(t, err)

	result, err := svc.Status(ctx, userID, &Request{Action: ActionStatus})

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.CurrentVersion)
	assert.NotNil(t, result.LastSync)
	assert.Equal(t, 2, result.BackupCount)
	assert.NotNil(t, result.LastBackup)
	require.Len(t, result.RecentEvents, 2)
	assert.Equal(t, ActionSave, result.RecentEvents[0].Action)
}

func TestResolveConflict_ManualUsesMergedBody(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	seedDocument(t, docs, userID, map[string]any{"theme": "dark"}, 1)

	result, err := svc.ResolveConflict(ctx, userID, &Request{
		Action:         ActionResolveConflict,
		Resolution:     "manual",
		ServerSettings: map[string]any{"theme": "dark"},
		ClientSettings: map[string]any{"theme": "light"},
		MergedSettings: map[string]any{"theme": "high-contrast"},
	})

	require.NoError(t, err)
	assert.Equal(t, "manual", result.Resolution)

	doc, err := docs.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "high-contrast", doc.Body["theme"])
	assert.Equal(t, int64(2), doc.Version)
}

func TestResolveConflict_RejectsMergeResolution(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ResolveConflict(context.Background(), uuid.New(), &Request{
		Action:     ActionResolveConflict,
		Resolution: "merge",
	})

	assert.Equal(t, CodeValidationFailed, engineError(t, err).Code)
}

func TestSave_ValidatesBody(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Save(ctx, userID, nil, nil)
	assert.Equal(t, CodeValidationFailed, engineError(t, err).Code)

	_, err = svc.Save(ctx, userID, map[string]any{"bogus": 1}, nil)
	assert.Equal(t, CodeValidationFailed, engineError(t, err).Code)

	result, err := svc.Save(ctx, userID, map[string]any{"theme": "dark", "bogus": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SavedCount)
}

func TestGet_DefaultsForNewUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Get(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.True(t, result.Defaulted)
	assert.NotEmpty(t, result.Settings)
	assert.Equal(t, int64(0), result.Metadata.Version)
}

func TestHistoryBoundedToTenEntries(t *testing.T) {
	svc, docs, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	themes := []string{"dark", "light", "auto", "high-contrast"}
	for i := 0; i < 12; i++ {
		_, err := svc.Save(ctx, userID, map[string]any{"theme": themes[i%len(themes)]}, nil)
		require.NoError(t, err)
	}

	entries, err := docs.ListHistory(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 10)

	// Most recent first; the 12th write was themes[11%4] = "high-contrast".
	assert.Equal(t, "high-contrast", entries[0].Body["theme"])
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt))
	}

	doc, err := docs.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), doc.Version)
}

func TestOperationsRequireOwner(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Export(ctx, uuid.Nil, &Request{Action: ActionExport})
	assert.Equal(t, CodeUnauthenticated, engineError(t, err).Code)

	_, err = svc.Sync(ctx, uuid.Nil, &Request{Action: ActionSync})
	assert.Equal(t, CodeUnauthenticated, engineError(t, err).Code)

	_, err = svc.Status(ctx, uuid.Nil, &Request{Action: ActionStatus})
	assert.Equal(t, CodeUnauthenticated, engineError(t, err).Code)
}

func TestEngineErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := storageError("put", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeSyncFailed, err.Code)
}
