package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	syncsvc "github.com/accessly/prefsync/internal/sync"
)

// writeResult emits the standard success envelope with the payload's fields
// flattened alongside success/action/timestamp, matching the wire shape the
// web app and extension already parse.
func writeResult(w http.ResponseWriter, action string, payload map[string]any) {
	body := map[string]any{
		"success":   true,
		"action":    action,
		"timestamp": time.Now().Unix(),
	}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// writeError maps engine errors onto the public error envelope. Internal
// detail stays in the log; the wire carries only the generic message and
// machine code.
func writeError(w http.ResponseWriter, log zerolog.Logger, action string, err error) {
	var engineErr *syncsvc.Error
	if !errors.As(err, &engineErr) {
		log.Error().Err(err).Str("action", action).Msg("sync operation failed")
		writeErrorBody(w, http.StatusInternalServerError, action, syncsvc.CodeSyncFailed, "sync operation failed", nil)
		return
	}

	status := http.StatusInternalServerError
	var extra map[string]any
	switch engineErr.Code {
	case syncsvc.CodeValidationFailed:
		status = http.StatusBadRequest
	case syncsvc.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case syncsvc.CodeConflictDetected:
		status = http.StatusConflict
		extra = map[string]any{
			"server_version":     engineErr.ServerVersion,
			"conflict_timestamp": engineErr.ConflictTimestamp,
		}
	default:
		log.Error().Err(engineErr).Str("action", action).Msg("sync operation failed")
	}
	writeErrorBody(w, status, action, engineErr.Code, engineErr.Message, extra)
}

func writeErrorBody(w http.ResponseWriter, status int, action, code, message string, extra map[string]any) {
	body := map[string]any{
		"success":   false,
		"error":     message,
		"code":      code,
		"timestamp": time.Now().Unix(),
	}
	if action != "" {
		body["action"] = action
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
