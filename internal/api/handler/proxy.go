package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lexrelay/lexrelay/internal/api/middleware"
	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/audit"
	"github.com/lexrelay/lexrelay/internal/config"
	"github.com/lexrelay/lexrelay/internal/connector/docusign"
	"github.com/lexrelay/lexrelay/internal/importer"
	"github.com/lexrelay/lexrelay/internal/integration"
)

// proxyRequest is the action envelope accepted by every proxy endpoint.
type proxyRequest struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// ProxyHandler serves the POST /proxy/{vendor} endpoints. Each request
// carries an {action, data} envelope; the handler dispatches on action,
// calls the vendor API with server-held credentials and relays the result.
// These endpoints keep their own response shapes: {"success":true,...} on
// success, {"success":false,"message","error"} on failure, and a bare
// {"error"} with 400 for malformed envelopes.
type ProxyHandler struct {
	cfg          *config.Config
	factory      integration.Factory
	importer     *importer.Importer
	audit        *audit.Recorder
	integrations integration.Repository
}

// NewProxyHandler creates a new ProxyHandler.
func NewProxyHandler(cfg *config.Config, factory integration.Factory, imp *importer.Importer, recorder *audit.Recorder, integrations integration.Repository) *ProxyHandler {
	return &ProxyHandler{cfg: cfg, factory: factory, importer: imp, audit: recorder, integrations: integrations}
}

func writeProxyJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode proxy response", "error", err)
	}
}

func proxyBadEnvelope(w http.ResponseWriter, message string) {
	writeProxyJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

func proxyFailure(w http.ResponseWriter, status int, message, detail string) {
	writeProxyJSON(w, status, map[string]any{
		"success": false,
		"message": message,
		"error":   detail,
	})
}

func proxyVendorFailure(w http.ResponseWriter, message string, err error) {
	proxyFailure(w, http.StatusInternalServerError, message, apperr.Normalize(err).Message)
}

// decodeEnvelope parses the {action, data} body. A false return means the
// response has already been written.
func decodeEnvelope(w http.ResponseWriter, r *http.Request) (proxyRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 8<<20)
	var req proxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		proxyBadEnvelope(w, "Invalid request body")
		return proxyRequest{}, false
	}
	return req, true
}

func decodeData(w http.ResponseWriter, raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return true
	}
	if err := json.Unmarshal(raw, out); err != nil {
		proxyBadEnvelope(w, "Invalid request body")
		return false
	}
	return true
}

// vendorInstance builds a wrapper over the server-held credentials. The
// wrapper starts connected: proxy calls are stateless and each action is a
// single vendor round trip.
func (h *ProxyHandler) vendorInstance(w http.ResponseWriter, vendor string) (integration.Integration, bool) {
	inst, err := h.factory(vendor, nil, true)
	if err != nil {
		proxyFailure(w, http.StatusInternalServerError, "Integration unavailable", apperr.Normalize(err).Message)
		return nil, false
	}
	return inst, true
}

// stampLastSynced moves the vendor's last-sync timestamp forward after a
// successful sync. The data already moved, so a missing row (a user syncing
// through server credentials without a persisted integration) or a write
// failure never surfaces to the caller.
func (h *ProxyHandler) stampLastSynced(r *http.Request, vendor string) {
	userID := middleware.GetIdentity(r.Context()).UserID
	err := h.integrations.TouchLastSynced(r.Context(), userID, vendor)
	if err != nil && !errors.Is(err, integration.ErrIntegrationNotFound) {
		slog.Warn("failed to stamp last sync", "error", err, "vendor", vendor, "userId", userID)
	}
}

// recordEffort appends one audit row for a mutating proxy action. The write
// is best-effort: the vendor action already succeeded, so an audit failure
// is logged inside the recorder and never surfaces here.
func (h *ProxyHandler) recordEffort(r *http.Request, clientID, vendor, action, detail string) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return
	}
	userID := middleware.GetIdentity(r.Context()).UserID
	h.audit.Record(audit.Effort{
		ClientID: &id,
		UserID:   &userID,
		Vendor:   vendor,
		Action:   action,
		Detail:   detail,
	})
}

// DocuSign handles POST /proxy/docusign.
func (h *ProxyHandler) DocuSign(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEnvelope(w, r)
	if !ok {
		return
	}
	if !h.cfg.DocuSign.Configured() {
		proxyFailure(w, http.StatusInternalServerError, "DocuSign integration is not configured", "missing credentials")
		return
	}
	inst, ok := h.vendorInstance(w, integration.VendorDocuSign)
	if !ok {
		return
	}
	ds := inst.(*integration.DocuSign)

	switch req.Action {
	case "test_connection":
		if err := ds.TestConnection(r.Context()); err != nil {
			proxyVendorFailure(w, "DocuSign connection failed", err)
			return
		}
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "DocuSign connection verified",
		})

	case "create_envelope":
		var data struct {
			DocumentName    string            `json:"documentName"`
			DocumentContent string            `json:"documentContent"`
			Signers         []docusign.Signer `json:"signers"`
			ClientInfo      struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"clientInfo"`
		}
		if !decodeData(w, req.Data, &data) {
			return
		}
		if data.DocumentName == "" || data.DocumentContent == "" || len(data.Signers) == 0 {
			proxyFailure(w, http.StatusBadRequest, "Document name, content and signers are required", "VALIDATION")
			return
		}

		envelope, err := ds.SendDocument(r.Context(), docusign.EnvelopeRequest{
			DocumentName:    data.DocumentName,
			DocumentContent: data.DocumentContent,
			Signers:         data.Signers,
			EmailSubject:    "Please sign: " + data.DocumentName,
		})
		if err != nil {
			proxyVendorFailure(w, "Failed to create envelope", err)
			return
		}

		h.recordEffort(r, data.ClientInfo.ID, integration.VendorDocuSign, "create_envelope", data.DocumentName)
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"envelopeId": envelope.EnvelopeID,
			"status":     envelope.Status,
		})

	default:
		proxyBadEnvelope(w, "Invalid action")
	}
}

// Slack handles POST /proxy/slack.
func (h *ProxyHandler) Slack(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEnvelope(w, r)
	if !ok {
		return
	}
	if !h.cfg.Slack.Configured() {
		proxyFailure(w, http.StatusInternalServerError, "Slack integration is not configured", "missing credentials")
		return
	}
	inst, ok := h.vendorInstance(w, integration.VendorSlack)
	if !ok {
		return
	}
	sl := inst.(*integration.Slack)

	switch req.Action {
	case "test_connection":
		if err := sl.TestConnection(r.Context()); err != nil {
			proxyVendorFailure(w, "Slack connection failed", err)
			return
		}
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Slack connection verified",
		})

	case "get_channels":
		channels, err := sl.GetChannels(r.Context())
		if err != nil {
			proxyVendorFailure(w, "Failed to fetch channels", err)
			return
		}
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"channels": channels,
		})

	case "send_message":
		var data struct {
			Channel     string `json:"channel"`
			Text        string `json:"text"`
			ClientID    string `json:"clientId"`
			MessageType string `json:"messageType"`
		}
		if !decodeData(w, req.Data, &data) {
			return
		}
		if data.Channel == "" || data.Text == "" {
			proxyFailure(w, http.StatusBadRequest, "Channel and text are required", "VALIDATION")
			return
		}

		ref, err := sl.SendMessage(r.Context(), data.Channel, data.Text)
		if err != nil {
			proxyVendorFailure(w, "Failed to send message", err)
			return
		}

		detail := data.MessageType
		if detail == "" {
			detail = "message"
		}
		h.recordEffort(r, data.ClientID, integration.VendorSlack, "send_message", detail)
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"messageId": ref.MessageID,
			"channel":   ref.Channel,
		})

	default:
		proxyBadEnvelope(w, "Invalid action")
	}
}

// Trello handles POST /proxy/trello.
func (h *ProxyHandler) Trello(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEnvelope(w, r)
	if !ok {
		return
	}
	if !h.cfg.Trello.Configured() {
		proxyFailure(w, http.StatusInternalServerError, "Trello integration is not configured", "missing credentials")
		return
	}
	inst, ok := h.vendorInstance(w, integration.VendorTrello)
	if !ok {
		return
	}
	tr := inst.(*integration.Trello)

	switch req.Action {
	case "test_connection":
		if err := tr.TestConnection(r.Context()); err != nil {
			proxyVendorFailure(w, "Trello connection failed", err)
			return
		}
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Trello connection verified",
		})

	case "get_boards":
		boards, err := tr.GetBoards(r.Context())
		if err != nil {
			proxyVendorFailure(w, "Failed to fetch boards", err)
			return
		}
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"boards":  boards,
		})

	case "get_lists":
		var data struct {
			BoardID string `json:"boardId"`
		}
		if !decodeData(w, req.Data, &data) {
			return
		}
		if data.BoardID == "" {
			proxyFailure(w, http.StatusBadRequest, "Board ID is required", "VALIDATION")
			return
		}

		lists, err := tr.GetLists(r.Context(), data.BoardID)
		if err != nil {
			proxyVendorFailure(w, "Failed to fetch lists", err)
			return
		}
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"lists":   lists,
		})

	case "create_card":
		var data struct {
			ListID      string `json:"listId"`
			Name        string `json:"name"`
			Description string `json:"description"`
			ClientID    string `json:"clientId"`
		}
		if !decodeData(w, req.Data, &data) {
			return
		}
		if data.ListID == "" || data.Name == "" {
			proxyFailure(w, http.StatusBadRequest, "List ID and card name are required", "VALIDATION")
			return
		}

		card, err := tr.CreateCard(r.Context(), data.ListID, data.Name, data.Description)
		if err != nil {
			proxyVendorFailure(w, "Failed to create card", err)
			return
		}

		h.recordEffort(r, data.ClientID, integration.VendorTrello, "create_card", data.Name)
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"card":    card,
		})

	default:
		proxyBadEnvelope(w, "Invalid action")
	}
}

// LawPay handles POST /proxy/lawpay.
func (h *ProxyHandler) LawPay(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEnvelope(w, r)
	if !ok {
		return
	}
	if !h.cfg.LawPay.Configured() {
		proxyFailure(w, http.StatusInternalServerError, "LawPay integration is not configured", "missing credentials")
		return
	}
	inst, ok := h.vendorInstance(w, integration.VendorLawPay)
	if !ok {
		return
	}
	lp := inst.(*integration.LawPay)

	switch req.Action {
	case "test_connection":
		if err := lp.TestConnection(r.Context()); err != nil {
			proxyVendorFailure(w, "LawPay connection failed", err)
			return
		}
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "LawPay connection verified",
		})

	case "import_data":
		userID := middleware.GetIdentity(r.Context()).UserID
		summary, err := h.importer.ImportData(r.Context(), userID, lp)
		if err != nil {
			proxyVendorFailure(w, "Failed to import LawPay data", err)
			return
		}
		h.stampLastSynced(r, integration.VendorLawPay)
		writeProxyJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"clients":      summary.Clients,
			"transactions": summary.Transactions,
		})

	default:
		proxyBadEnvelope(w, "Invalid action")
	}
}
