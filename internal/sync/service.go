// Package sync implements the settings synchronization coordinator: the
// server-side authority that stores a user's settings document, detects
// conflicting concurrent edits, resolves them according to a requested
// strategy, keeps a bounded history for recovery, and records an audit
// event for every operation.
package sync

import (
	"context"
	"errors"
	"time"

	"github.com/accessly/prefsync/internal/models"
	"github.com/accessly/prefsync/internal/repositories"
	"github.com/accessly/prefsync/internal/settings"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	recentEventLimit = 10
	formatVersion    = "2.0"
)

// Service orchestrates the five sync operations plus the direct save/get
// surface. It holds no per-request state; any number of requests for
// different users run fully in parallel, and contention for one user is
// resolved inside DocumentRepository.Put.
type Service struct {
	docs   repositories.DocumentRepository
	events repositories.SyncEventRepository
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(docs repositories.DocumentRepository, events repositories.SyncEventRepository, log zerolog.Logger) *Service {
	return &Service{
		docs:   docs,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// Export reads the current document, strips server-confidential fields and
// returns the body with a content checksum and version metadata. A user
// with no document exports an empty body. No history entry, no version
// bump.
func (s *Service) Export(ctx context.Context, userID uuid.UUID, req *Request) (*ExportResult, error) {
	if userID == uuid.Nil {
		return nil, unauthenticatedError()
	}

	body, meta, err := s.currentState(ctx, userID)
	if err != nil {
		s.recordEvent(ctx, userID, ActionExport, req, false)
		return nil, err
	}

	filtered := settings.FilterForExport(body)

	result := &ExportResult{
		Settings: filtered,
		ExportInfo: ExportInfo{
			ExportDate:    s.now().UTC().Format(time.RFC3339),
			UserID:        userID.String(),
			Source:        req.Source,
			DeviceID:      req.DeviceID,
			ClientVersion: req.ClientVersion,
			FormatVersion: formatVersion,
		},
	}
	if meta.Version > 0 {
		meta.Checksum = settings.Checksum(filtered)
		result.Metadata = &meta
	}

	s.recordEvent(ctx, userID, ActionExport, req, true)
	return result, nil
}

// Import writes a client-supplied settings body over the server document.
// A stale client view with conflict_resolution=server is rejected without
// any write; with merge, the two bodies are shallow-merged first. The body
// is validated against the preference schema before persisting.
func (s *Service) Import(ctx context.Context, userID uuid.UUID, req *Request) (*ImportResult, error) {
	if userID == uuid.Nil {
		return nil, unauthenticatedError()
	}

	if req.Data == nil || req.Data.Settings == nil {
		s.recordEvent(ctx, userID, ActionImport, req, false)
		return nil, validationError("no settings data provided for import")
	}

	resolution, err := settings.ParseResolution(req.ConflictResolution, settings.ResolutionServer,
		settings.ResolutionServer, settings.ResolutionClient, settings.ResolutionMerge)
	if err != nil {
		s.recordEvent(ctx, userID, ActionImport, req, false)
		return nil, validationError("invalid conflict_resolution %q", req.ConflictResolution)
	}

	serverBody, serverMeta, err := s.currentState(ctx, userID)
	if err != nil {
		s.recordEvent(ctx, userID, ActionImport, req, false)
		return nil, err
	}

	var clientMeta models.ClientMetadata
	if req.Data.Metadata != nil {
		clientMeta = *req.Data.Metadata
	}

	conflict := settings.DetectConflict(serverMeta, clientMeta)
	if conflict && resolution == settings.ResolutionServer {
		s.recordEvent(ctx, userID, ActionImport, req, false)
		return nil, conflictError(serverMeta.Version, serverMeta.LastModified)
	}

	body := req.Data.Settings
	if conflict && resolution == settings.ResolutionMerge {
		body = settings.MergeShallow(serverBody, body)
	}
	validated := settings.Validate(body)

	doc, err := s.persist(ctx, userID, validated)
	if err != nil {
		s.recordEvent(ctx, userID, ActionImport, req, false)
		return nil, err
	}

	s.recordEvent(ctx, userID, ActionImport, req, true)
	return &ImportResult{
		ImportedCount:    len(validated),
		ConflictResolved: conflict,
		Metadata:         doc.Metadata(),
	}, nil
}

// Sync performs a two-way sync: the client-specified strategy combines the
// server and client bodies, the result is validated, and a write happens
// only when the result differs from the current server body.
func (s *Service) Sync(ctx context.Context, userID uuid.UUID, req *Request) (*SyncResult, error) {
	if userID == uuid.Nil {
		return nil, unauthenticatedError()
	}

	strategy, err := settings.ParseStrategy(req.SyncStrategy, settings.StrategyServerWins)
	if err != nil {
		s.recordEvent(ctx, userID, ActionSync, req, false)
		return nil, validationError("invalid sync_strategy %q", req.SyncStrategy)
	}

	serverBody, serverMeta, err := s.currentState(ctx, userID)
	if err != nil {
		s.recordEvent(ctx, userID, ActionSync, req, false)
		return nil, err
	}

	var clientMeta models.ClientMetadata
	if req.Metadata != nil {
		clientMeta = *req.Metadata
	}

	merged := settings.Resolve(serverBody, req.Settings, serverMeta, clientMeta, strategy)
	validated := settings.Validate(merged)

	meta := serverMeta
	changed := !settings.Equal(validated, serverBody)
	if changed {
		doc, err := s.persist(ctx, userID, validated)
		if err != nil {
			s.recordEvent(ctx, userID, ActionSync, req, false)
			return nil, err
		}
		meta = doc.Metadata()
	}

	s.recordEvent(ctx, userID, ActionSync, req, true)
	return &SyncResult{
		Settings: validated,
		Metadata: meta,
		Outcome: SyncOutcome{
			Strategy:            string(strategy),
			Merged:              changed,
			ClientSettingsCount: len(req.Settings),
			ServerSettingsCount: len(serverBody),
		},
	}, nil
}

// Status reports version state, history retention, and the last ten audit
// events. It performs no document mutation; the reads fan out concurrently.
func (s *Service) Status(ctx context.Context, userID uuid.UUID, req *Request) (*StatusResult, error) {
	if userID == uuid.Nil {
		return nil, unauthenticatedError()
	}

	var (
		doc    *models.SettingsDocument
		stats  repositories.HistoryStats
		recent []*models.SyncEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.docs.Get(gctx, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		doc = d
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.docs.HistoryStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.events.Recent(gctx, userID, recentEventLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.recordEvent(ctx, userID, ActionStatus, req, false)
		return nil, storageError("status", err)
	}

	result := &StatusResult{
		BackupCount:  stats.Count,
		DeviceID:     req.DeviceID,
		RecentEvents: recent,
	}
	if result.RecentEvents == nil {
		result.RecentEvents = []*models.SyncEvent{}
	}
	if doc != nil {
		result.CurrentVersion = doc.Version
		ts := doc.UpdatedAt.Unix()
		result.LastSync = &ts
	}
	if stats.LastBackup != nil {
		ts := stats.LastBackup.Unix()
		result.LastBackup = &ts
	}

	s.recordEvent(ctx, userID, ActionStatus, req, true)
	return result, nil
}

// ResolveConflict applies an explicit, client-driven resolution: keep the
// supplied server view, keep the client view, or take an already-merged
// body verbatim (manual).
func (s *Service) ResolveConflict(ctx context.Context, userID uuid.UUID, req *Request) (*ResolveResult, error) {
	if userID == uuid.Nil {
		return nil, unauthenticatedError()
	}

	resolution, err := settings.ParseResolution(req.Resolution, settings.ResolutionServer,
		settings.ResolutionServer, settings.ResolutionClient, settings.ResolutionManual)
	if err != nil {
		s.recordEvent(ctx, userID, ActionResolveConflict, req, false)
		return nil, validationError("invalid resolution %q", req.Resolution)
	}

	resolved := req.ServerSettings
	switch resolution {
	case settings.ResolutionClient:
		resolved = req.ClientSettings
	case settings.ResolutionManual:
		if req.MergedSettings != nil {
			resolved = req.MergedSettings
		}
	}

	validated := settings.Validate(resolved)

	doc, err := s.persist(ctx, userID, validated)
	if err != nil {
		s.recordEvent(ctx, userID, ActionResolveConflict, req, false)
		return nil, err
	}

	s.recordEvent(ctx, userID, ActionResolveConflict, req, true)
	return &ResolveResult{
		Resolution: string(resolution),
		Metadata:   doc.Metadata(),
	}, nil
}

// Save validates and persists a directly-supplied settings body, the
// non-sync write path used by the settings page.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, body map[string]any, req *Request) (*SaveResult, error) {
	if userID == uuid.Nil {
		return nil, unauthenticatedError()
	}
	if len(body) == 0 {
		return nil, validationError("no settings provided")
	}

	validated := settings.Validate(body)
	if len(validated) == 0 {
		return nil, validationError("no valid settings to save")
	}

	doc, err := s.persist(ctx, userID, validated)
	if err != nil {
		s.recordEvent(ctx, userID, ActionSave, req, false)
		return nil, err
	}

	s.recordEvent(ctx, userID, ActionSave, req, true)
	return &SaveResult{
		SavedCount: len(validated),
		Metadata:   doc.Metadata(),
	}, nil
}

// Get returns the current settings body, or the built-in defaults when the
// user has never saved.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*GetResult, error) {
	if userID == uuid.Nil {
		return nil, unauthenticatedError()
	}

	doc, err := s.docs.Get(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &GetResult{Settings: settings.Defaults(), Defaulted: true}, nil
	}
	if err != nil {
		return nil, storageError("get", err)
	}
	return &GetResult{Settings: doc.Body, Metadata: doc.Metadata()}, nil
}

// currentState loads the live body and metadata, mapping an absent
// document to an empty body at version 0.
func (s *Service) currentState(ctx context.Context, userID uuid.UUID) (map[string]any, models.DocumentMetadata, error) {
	doc, err := s.docs.Get(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return map[string]any{}, models.DocumentMetadata{}, nil
	}
	if err != nil {
		return nil, models.DocumentMetadata{}, storageError("load document", err)
	}
	return doc.Body, doc.Metadata(), nil
}

// persist writes the live document and appends a history snapshot. The
// document write is authoritative; a history failure after a successful
// put is logged and the operation still succeeds.
func (s *Service) persist(ctx context.Context, userID uuid.UUID, body map[string]any) (*models.SettingsDocument, error) {
	doc, err := s.docs.Put(ctx, userID, body)
	if err != nil {
		return nil, storageError("put document", err)
	}

	if err := s.docs.AppendHistory(ctx, userID, body); err != nil {
		s.log.Error().Err(err).Stringer("user_id", userID).Msg("history append failed after put")
	}
	return doc, nil
}

// recordEvent appends an audit row for every operation outcome. Append
// failures are logged and never mask the primary result.
func (s *Service) recordEvent(ctx context.Context, userID uuid.UUID, action string, req *Request, success bool) {
	event := &models.SyncEvent{
		UserID:  userID,
		Action:  action,
		Success: success,
	}
	if req != nil {
		event.Source = req.Source
		event.DeviceID = req.DeviceID
	}
	if err := s.events.Append(ctx, event); err != nil {
		s.log.Warn().Err(err).Stringer("user_id", userID).Str("action", action).Msg("sync event append failed")
	}
}
