package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/accessly/prefsync/internal/services"
)

type AuthHandler struct {
	auth     *services.AuthService
	validate *validator.Validate
	log      zerolog.Logger
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=10,max=128"`
}

func NewAuthHandler(auth *services.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, validate: validator.New(), log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	err := h.auth.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrEmailExists) {
		writeErrorBody(w, http.StatusConflict, "register", "EMAIL_EXISTS", "email already registered", nil)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("register failed")
		writeErrorBody(w, http.StatusInternalServerError, "register", "REGISTRATION_FAILED", "registration failed", nil)
		return
	}
	writeResult(w, "register", map[string]any{"message": "account created"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	resp, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		writeErrorBody(w, http.StatusUnauthorized, "login", "INVALID_CREDENTIALS", "invalid email or password", nil)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("login failed")
		writeErrorBody(w, http.StatusInternalServerError, "login", "LOGIN_FAILED", "login failed", nil)
		return
	}
	writeResult(w, "login", map[string]any{
		"token":      resp.Token,
		"expires_at": resp.ExpiresAt.Unix(),
		"user_id":    resp.UserID,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeErrorBody(w, http.StatusUnauthorized, "logout", "UNAUTHENTICATED", "authentication required", nil)
		return
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeErrorBody(w, http.StatusUnauthorized, "logout", "SESSION_EXPIRED", "invalid session", nil)
		return
	}
	writeResult(w, "logout", map[string]any{"message": "logged out"})
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (*credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "", "VALIDATION_FAILED", "invalid JSON input", nil)
		return nil, false
	}
	if err := h.validate.Struct(&req); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "", "VALIDATION_FAILED", "invalid email or password format", nil)
		return nil, false
	}
	return &req, true
}
