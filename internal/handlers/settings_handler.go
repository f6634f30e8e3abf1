package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	syncsvc "github.com/accessly/prefsync/internal/sync"
)

// SettingsHandler serves the direct read/save surface the settings page
// uses, bypassing the sync action envelope.
type SettingsHandler struct {
	svc        *syncsvc.Service
	maxPayload int64
	log        zerolog.Logger
}

func NewSettingsHandler(svc *syncsvc.Service, maxPayload int64, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, maxPayload: maxPayload, log: log}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, "get", err)
		return
	}
	writeResult(w, "get", map[string]any{
		"settings":  result.Settings,
		"metadata":  result.Metadata,
		"defaulted": result.Defaulted,
	})
}

func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayload)

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, "save", syncsvc.CodeValidationFailed, "settings payload too large", nil)
			return
		}
		writeErrorBody(w, http.StatusBadRequest, "save", syncsvc.CodeValidationFailed, "invalid JSON input", nil)
		return
	}

	req := &syncsvc.Request{
		Action:   syncsvc.ActionSave,
		Source:   r.Header.Get("X-Sync-Source"),
		DeviceID: r.Header.Get("X-Device-Id"),
	}
	result, err := h.svc.Save(r.Context(), UserID(r.Context()), body, req)
	if err != nil {
		writeError(w, h.log, "save", err)
		return
	}
	writeResult(w, "save", map[string]any{
		"message":     "settings saved successfully",
		"saved_count": result.SavedCount,
		"metadata":    result.Metadata,
	})
}
