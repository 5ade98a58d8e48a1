package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lexrelay/lexrelay/internal/api/middleware"
	"github.com/lexrelay/lexrelay/internal/api/response"
	"github.com/lexrelay/lexrelay/internal/api/validation"
	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/integration"
)

// Managers builds per-user integration registries. A registry lives for one
// request; persisted rows are its durable state.
type Managers struct {
	repo    integration.Repository
	factory integration.Factory
}

// NewManagers creates a Managers over the integration repository and vendor
// factory.
func NewManagers(repo integration.Repository, factory integration.Factory) *Managers {
	return &Managers{repo: repo, factory: factory}
}

// ForUser creates and loads the registry for one user.
func (m *Managers) ForUser(ctx context.Context, userID uuid.UUID) (*integration.Manager, error) {
	mgr := integration.NewManager(userID, m.repo, m.factory)
	if err := mgr.Load(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}

type addIntegrationRequest struct {
	Vendor string         `json:"vendor"`
	Config map[string]any `json:"config"`
}

type integrationResponse struct {
	Vendor       string `json:"vendor"`
	Status       string `json:"status"`
	LastSyncedAt string `json:"lastSyncedAt,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

func toIntegrationResponse(row *integration.UserIntegration) integrationResponse {
	resp := integrationResponse{
		Vendor: row.Vendor,
		Status: row.Status,
	}
	if row.LastSyncedAt != nil {
		resp.LastSyncedAt = row.LastSyncedAt.UTC().Format(time.RFC3339)
	}
	if !row.CreatedAt.IsZero() {
		resp.CreatedAt = row.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// IntegrationHandler handles integration management endpoints.
type IntegrationHandler struct {
	repo     integration.Repository
	managers *Managers
}

// NewIntegrationHandler creates a new IntegrationHandler.
func NewIntegrationHandler(repo integration.Repository, managers *Managers) *IntegrationHandler {
	return &IntegrationHandler{repo: repo, managers: managers}
}

// List handles GET /integrations.
func (h *IntegrationHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	rows, err := h.repo.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to list integrations", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list integrations", requestID)
		return
	}

	items := make([]integrationResponse, 0, len(rows))
	for i := range rows {
		items = append(items, toIntegrationResponse(&rows[i]))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// Add handles POST /integrations. The vendor's credentials are validated
// before the integration is persisted as connected.
func (h *IntegrationHandler) Add(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req addIntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateAddIntegrationRequest(validation.AddIntegrationRequest{Vendor: req.Vendor})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	mgr, err := h.managers.ForUser(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to load integrations", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load integrations", requestID)
		return
	}

	vendor := strings.ToLower(req.Vendor)
	inst, err := mgr.Add(vendor, req.Config)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "UNKNOWN_VENDOR", apperr.Normalize(err).Message, requestID)
		return
	}

	if err := inst.Connect(r.Context()); err != nil {
		response.Err(w, http.StatusBadGateway, "CONNECTION_FAILED", apperr.Normalize(err).Message, requestID)
		return
	}

	if err := mgr.Save(r.Context(), vendor); err != nil {
		slog.Error("failed to save integration", "error", err, "vendor", vendor, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save integration", requestID)
		return
	}

	// Connect verified the vendor credentials, which counts as a sync.
	if err := h.repo.TouchLastSynced(r.Context(), identity.UserID, vendor); err != nil {
		slog.Warn("failed to stamp last sync", "error", err, "vendor", vendor, "userId", identity.UserID)
	}

	response.Success(w, http.StatusCreated, integrationResponse{
		Vendor: vendor,
		Status: integration.StatusConnected,
	}, requestID)
}

// Remove handles DELETE /integrations/{vendor}.
func (h *IntegrationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	vendor := strings.ToLower(chi.URLParam(r, "vendor"))

	mgr, err := h.managers.ForUser(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to load integrations", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load integrations", requestID)
		return
	}

	if err := mgr.Remove(r.Context(), vendor); err != nil {
		if errors.Is(err, integration.ErrIntegrationNotFound) || apperr.KindOf(err) == apperr.KindValidation {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Integration not found", requestID)
			return
		}
		slog.Error("failed to remove integration", "error", err, "vendor", vendor, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove integration", requestID)
		return
	}

	response.NoContent(w)
}

// TestAll handles POST /integrations/test. Every registered integration is
// checked; one failure never hides another vendor's result.
func (h *IntegrationHandler) TestAll(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	mgr, err := h.managers.ForUser(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to load integrations", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load integrations", requestID)
		return
	}

	response.Success(w, http.StatusOK, mgr.TestAll(r.Context()), requestID)
}
