package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	syncsvc "github.com/accessly/prefsync/internal/sync"
)

// SyncHandler serves the single action-dispatch sync endpoint. Malformed
// envelopes (bad JSON, oversized payloads, unknown actions) are rejected
// here, before the engine or the store is touched.
type SyncHandler struct {
	svc        *syncsvc.Service
	validate   *validator.Validate
	maxPayload int64
	log        zerolog.Logger
}

func NewSyncHandler(svc *syncsvc.Service, maxPayload int64, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		svc:        svc,
		validate:   validator.New(),
		maxPayload: maxPayload,
		log:        log,
	}
}

func (h *SyncHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayload)
	var req syncsvc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, "", syncsvc.CodeValidationFailed, "settings payload too large", nil)
			return
		}
		writeErrorBody(w, http.StatusBadRequest, "", syncsvc.CodeValidationFailed, "invalid JSON input", nil)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, req.Action, syncsvc.CodeValidationFailed, "invalid action specified", nil)
		return
	}

	ctx := r.Context()
	switch req.Action {
	case syncsvc.ActionExport:
		result, err := h.svc.Export(ctx, userID, &req)
		if err != nil {
			writeError(w, h.log, req.Action, err)
			return
		}
		writeResult(w, req.Action, map[string]any{"data": result})

	case syncsvc.ActionImport:
		result, err := h.svc.Import(ctx, userID, &req)
		if err != nil {
			writeError(w, h.log, req.Action, err)
			return
		}
		writeResult(w, req.Action, map[string]any{
			"message":           "settings imported successfully",
			"imported_count":    result.ImportedCount,
			"conflict_resolved": result.ConflictResolved,
			"metadata":          result.Metadata,
		})

	case syncsvc.ActionSync:
		result, err := h.svc.Sync(ctx, userID, &req)
		if err != nil {
			writeError(w, h.log, req.Action, err)
			return
		}
		writeResult(w, req.Action, map[string]any{
			"settings":    result.Settings,
			"metadata":    result.Metadata,
			"sync_result": result.Outcome,
		})

	case syncsvc.ActionStatus:
		result, err := h.svc.Status(ctx, userID, &req)
		if err != nil {
			writeError(w, h.log, req.Action, err)
			return
		}
		writeResult(w, req.Action, map[string]any{
			"status": map[string]any{
				"current_version": result.CurrentVersion,
				"last_sync":       result.LastSync,
				"backup_count":    result.BackupCount,
				"last_backup":     result.LastBackup,
				"device_id":       result.DeviceID,
			},
			"recent_events": result.RecentEvents,
		})

	case syncsvc.ActionResolveConflict:
		result, err := h.svc.ResolveConflict(ctx, userID, &req)
		if err != nil {
			writeError(w, h.log, req.Action, err)
			return
		}
		writeResult(w, req.Action, map[string]any{
			"message":    "conflict resolved successfully",
			"resolution": result.Resolution,
			"metadata":   result.Metadata,
		})

	default:
		writeErrorBody(w, http.StatusBadRequest, req.Action, syncsvc.CodeValidationFailed, "invalid action specified", nil)
	}
}
