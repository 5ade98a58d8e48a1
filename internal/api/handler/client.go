package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lexrelay/lexrelay/internal/api/middleware"
	"github.com/lexrelay/lexrelay/internal/api/response"
	"github.com/lexrelay/lexrelay/internal/api/validation"
	"github.com/lexrelay/lexrelay/internal/client"
	"github.com/lexrelay/lexrelay/internal/export"
	"github.com/lexrelay/lexrelay/internal/format"
)

type createClientRequest struct {
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	OutstandingBalance *float64 `json:"outstandingBalance"`
}

type updateClientRequest struct {
	Name               *string  `json:"name"`
	Email              *string  `json:"email"`
	Phone              *string  `json:"phone"`
	OutstandingBalance *float64 `json:"outstandingBalance"`
}

type clientResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone"`
	Source             string  `json:"source"`
	ExternalID         *string `json:"externalId,omitempty"`
	OutstandingBalance float64 `json:"outstandingBalance"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func toClientResponse(c *client.Client) clientResponse {
	return clientResponse{
		ID:                 c.ID.String(),
		Name:               c.Name,
		Email:              c.Email,
		Phone:              c.Phone,
		Source:             c.Source,
		ExternalID:         c.ExternalID,
		OutstandingBalance: c.OutstandingBalance,
		CreatedAt:          c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ClientHandler handles client CRUD and export endpoints.
type ClientHandler struct {
	repo client.Repository
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(repo client.Repository) *ClientHandler {
	return &ClientHandler{repo: repo}
}

// Create handles POST /clients.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateClientRequest(validation.CreateClientRequest{
		Name:               req.Name,
		Email:              req.Email,
		OutstandingBalance: req.OutstandingBalance,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	c := &client.Client{
		UserID: identity.UserID,
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Source: "manual",
	}
	if req.OutstandingBalance != nil {
		c.OutstandingBalance = *req.OutstandingBalance
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		slog.Error("failed to create client", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create client", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toClientResponse(c), requestID)
}

// List handles GET /clients.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	filter := client.ListFilter{Page: 1, Limit: 20}
	if name := r.URL.Query().Get("name"); name != "" {
		filter.Name = &name
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit <= 100 {
		filter.Limit = limit
	}

	result, err := h.repo.List(r.Context(), identity.UserID, filter)
	if err != nil {
		slog.Error("failed to list clients", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list clients", requestID)
		return
	}

	items := make([]clientResponse, 0, len(result.Clients))
	for i := range result.Clients {
		items = append(items, toClientResponse(&result.Clients[i]))
	}

	response.SuccessList(w, http.StatusOK, items, result.Total, result.Page, result.Limit, requestID)
}

// GetByID handles GET /clients/{id}.
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	c, err := h.repo.GetByID(r.Context(), identity.UserID, id)
	if err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Client not found", requestID)
			return
		}
		slog.Error("failed to get client", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get client", requestID)
		return
	}

	response.Success(w, http.StatusOK, toClientResponse(c), requestID)
}

// Update handles PATCH /clients/{id}.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateClientRequest(validation.UpdateClientRequest{
		Name:               req.Name,
		Email:              req.Email,
		OutstandingBalance: req.OutstandingBalance,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	c, err := h.repo.Update(r.Context(), identity.UserID, id, client.UpdateFields{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		OutstandingBalance: req.OutstandingBalance,
	})
	if err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Client not found", requestID)
			return
		}
		slog.Error("failed to update client", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update client", requestID)
		return
	}

	response.Success(w, http.StatusOK, toClientResponse(c), requestID)
}

// Delete handles DELETE /clients/{id}.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	if err := h.repo.Delete(r.Context(), identity.UserID, id); err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Client not found", requestID)
			return
		}
		slog.Error("failed to delete client", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete client", requestID)
		return
	}

	response.NoContent(w)
}

var exportColumns = []export.Column{
	{Key: "name", Label: "Name"},
	{Key: "email", Label: "Email"},
	{Key: "phone", Label: "Phone"},
	{Key: "source", Label: "Source"},
	{Key: "outstandingBalance", Label: "Outstanding Balance"},
	{Key: "createdAt", Label: "Created"},
}

// Export handles GET /clients/export?format=csv|json|excel. The whole client
// list is exported; pagination does not apply.
func (h *ClientHandler) Export(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	exportFormat := r.URL.Query().Get("format")
	if exportFormat == "" {
		exportFormat = "csv"
	}
	if fieldErrors := validation.ValidateExportFormat(exportFormat); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	result, err := h.repo.List(r.Context(), identity.UserID, client.ListFilter{Page: 1, Limit: 10000})
	if err != nil {
		slog.Error("failed to export clients", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export clients", requestID)
		return
	}

	records := make([]export.Record, 0, len(result.Clients))
	for i := range result.Clients {
		c := &result.Clients[i]
		records = append(records, export.Record{
			"name":               c.Name,
			"email":              c.Email,
			"phone":              format.PhoneNumber(c.Phone),
			"source":             c.Source,
			"outstandingBalance": format.CurrencyValue(c.OutstandingBalance),
			"createdAt":          format.Date(c.CreatedAt),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch exportFormat {
	case "csv":
		writeExport(w, "text/csv", fmt.Sprintf("clients-%s.csv", stamp), export.ToCSV(records, exportColumns))
	case "json":
		body, err := export.ToJSON(records, exportColumns)
		if err != nil {
			slog.Error("failed to encode client export", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export clients", requestID)
			return
		}
		writeExport(w, "application/json", fmt.Sprintf("clients-%s.json", stamp), body)
	case "excel":
		writeExport(w, "application/vnd.ms-excel", fmt.Sprintf("clients-%s.xls", stamp),
			export.ToExcelXML(records, exportColumns, "Clients"))
	}
}

func writeExport(w http.ResponseWriter, contentType, filename, body string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
