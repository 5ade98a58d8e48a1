package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexrelay/lexrelay/internal/api/middleware"
	"github.com/lexrelay/lexrelay/internal/api/response"
	"github.com/lexrelay/lexrelay/internal/settings"
)

type settingsResponse struct {
	Settings  map[string]any `json:"settings"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

// SettingsHandler handles the per-user settings document.
type SettingsHandler struct {
	repo settings.Repository
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(repo settings.Repository) *SettingsHandler {
	return &SettingsHandler{repo: repo}
}

// Get handles GET /settings. A user with no saved settings gets an empty
// document, not a 404.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	s, err := h.repo.Get(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to get settings", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get settings", requestID)
		return
	}

	resp := settingsResponse{Settings: s.Values}
	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	response.Success(w, http.StatusOK, resp, requestID)
}

// Put handles PUT /settings. The document is replaced wholesale.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Settings map[string]any `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}
	if req.Settings == nil {
		req.Settings = map[string]any{}
	}

	s, err := h.repo.Upsert(r.Context(), identity.UserID, req.Settings)
	if err != nil {
		slog.Error("failed to save settings", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save settings", requestID)
		return
	}

	response.Success(w, http.StatusOK, settingsResponse{
		Settings:  s.Values,
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
	}, requestID)
}
