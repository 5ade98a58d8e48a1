package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexrelay/lexrelay/internal/api/handler"
	"github.com/lexrelay/lexrelay/internal/api/middleware"
	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/audit"
	"github.com/lexrelay/lexrelay/internal/auth"
	"github.com/lexrelay/lexrelay/internal/client"
	"github.com/lexrelay/lexrelay/internal/config"
	"github.com/lexrelay/lexrelay/internal/connector/docusign"
	"github.com/lexrelay/lexrelay/internal/connector/lawpay"
	"github.com/lexrelay/lexrelay/internal/connector/slack"
	"github.com/lexrelay/lexrelay/internal/connector/trello"
	"github.com/lexrelay/lexrelay/internal/importer"
	"github.com/lexrelay/lexrelay/internal/integration"
)

// --- Fake vendor APIs ---

type fakeSlackAPI struct {
	postErr    error
	postCalled bool
}

func (f *fakeSlackAPI) AuthTest(context.Context) (*slack.Team, error) {
	return &slack.Team{}, nil
}

func (f *fakeSlackAPI) ListChannels(context.Context) ([]slack.Channel, error) {
	return []slack.Channel{
		{ID: "C1", Name: "general", MemberCount: 12},
		{ID: "C2", Name: "collections", IsPrivate: true, MemberCount: 3},
	}, nil
}

func (f *fakeSlackAPI) PostMessage(_ context.Context, channel, _ string) (*slack.MessageRef, error) {
	f.postCalled = true
	if f.postErr != nil {
		return nil, f.postErr
	}
	return &slack.MessageRef{MessageID: "1727912345.000100", Channel: channel}, nil
}

type fakeTrelloAPI struct {
	createCalled bool
}

func (f *fakeTrelloAPI) Me(context.Context) (*trello.Member, error) {
	return &trello.Member{ID: "m1"}, nil
}

func (f *fakeTrelloAPI) Boards(context.Context) ([]trello.Board, error) {
	return []trello.Board{{ID: "b1", Name: "Collections", URL: "https://trello.com/b/b1"}}, nil
}

func (f *fakeTrelloAPI) Lists(_ context.Context, boardID string) ([]trello.List, error) {
	return []trello.List{{ID: "l1", Name: "To do"}}, nil
}

func (f *fakeTrelloAPI) CreateCard(_ context.Context, listID, name, _ string) (*trello.Card, error) {
	f.createCalled = true
	return &trello.Card{ID: "c1", Name: name, URL: "https://trello.com/c/c1", ShortURL: "https://trello.com/c/c1"}, nil
}

type fakeDocuSignAPI struct{}

func (f *fakeDocuSignAPI) UserInfo(context.Context) (*docusign.UserInfo, error) {
	return &docusign.UserInfo{Name: "Test User"}, nil
}

func (f *fakeDocuSignAPI) CreateEnvelope(_ context.Context, req docusign.EnvelopeRequest) (*docusign.Envelope, error) {
	return &docusign.Envelope{EnvelopeID: "env-123", Status: "sent"}, nil
}

type fakeLawPayAPI struct{}

func (f *fakeLawPayAPI) Ping(context.Context) error { return nil }

func (f *fakeLawPayAPI) Contacts(context.Context) ([]lawpay.Contact, error) {
	return []lawpay.Contact{{ID: "ct_1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}}, nil
}

func (f *fakeLawPayAPI) Transactions(context.Context) ([]lawpay.Transaction, error) {
	return []lawpay.Transaction{{ID: "tx_1", ContactID: "ct_1", Amount: 50000, Status: "settled"}}, nil
}

// --- Fake persistence ---

type captureAuditRepo struct {
	efforts []audit.Effort
}

func (c *captureAuditRepo) Append(_ context.Context, e *audit.Effort) error {
	c.efforts = append(c.efforts, *e)
	return nil
}

func (c *captureAuditRepo) ListByClient(context.Context, uuid.UUID, int) ([]audit.Effort, error) {
	return c.efforts, nil
}

type stubClientRepo struct {
	created []client.Client
}

func (s *stubClientRepo) Create(_ context.Context, c *client.Client) error {
	c.ID = uuid.New()
	s.created = append(s.created, *c)
	return nil
}

func (s *stubClientRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (*client.Client, error) {
	return nil, client.ErrClientNotFound
}

func (s *stubClientRepo) List(context.Context, uuid.UUID, client.ListFilter) (*client.ListResult, error) {
	return &client.ListResult{}, nil
}

func (s *stubClientRepo) Update(context.Context, uuid.UUID, uuid.UUID, client.UpdateFields) (*client.Client, error) {
	return nil, client.ErrClientNotFound
}

func (s *stubClientRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return client.ErrClientNotFound
}

type stubIntegrationRepo struct {
	rows   map[string]*integration.UserIntegration
	synced []string
}

func newStubIntegrationRepo() *stubIntegrationRepo {
	return &stubIntegrationRepo{rows: map[string]*integration.UserIntegration{}}
}

func (s *stubIntegrationRepo) ListByUser(context.Context, uuid.UUID) ([]integration.UserIntegration, error) {
	out := []integration.UserIntegration{}
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (s *stubIntegrationRepo) Get(_ context.Context, _ uuid.UUID, vendor string) (*integration.UserIntegration, error) {
	row, ok := s.rows[vendor]
	if !ok {
		return nil, integration.ErrIntegrationNotFound
	}
	out := *row
	return &out, nil
}

func (s *stubIntegrationRepo) Upsert(_ context.Context, row *integration.UserIntegration) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	stored := *row
	s.rows[row.Vendor] = &stored
	return nil
}

func (s *stubIntegrationRepo) TouchLastSynced(_ context.Context, _ uuid.UUID, vendor string) error {
	s.synced = append(s.synced, vendor)
	row, ok := s.rows[vendor]
	if !ok {
		return integration.ErrIntegrationNotFound
	}
	now := time.Now()
	row.LastSyncedAt = &now
	return nil
}

func (s *stubIntegrationRepo) Delete(_ context.Context, _ uuid.UUID, vendor string) error {
	if _, ok := s.rows[vendor]; !ok {
		return integration.ErrIntegrationNotFound
	}
	delete(s.rows, vendor)
	return nil
}

type stubImportRepo struct{}

func (stubImportRepo) LookupMapping(context.Context, uuid.UUID, string, string) (uuid.UUID, error) {
	return uuid.Nil, importer.ErrMappingNotFound
}

func (stubImportRepo) CreateMapping(context.Context, uuid.UUID, string, string, uuid.UUID) error {
	return nil
}

func (stubImportRepo) RecordTransaction(context.Context, *importer.ImportedTransaction) (bool, error) {
	return true, nil
}

// --- Fixture ---

type proxyFixture struct {
	handler      *handler.ProxyHandler
	slackAPI     *fakeSlackAPI
	trello       *fakeTrelloAPI
	audits       *captureAuditRepo
	integrations *stubIntegrationRepo
	userID       uuid.UUID
}

func fullConfig() *config.Config {
	return &config.Config{
		DocuSign: config.DocuSignConfig{
			IntegrationKey: "key", UserID: "user", AccountID: "acct", PrivateKey: "pem",
		},
		Slack:  config.SlackConfig{BotToken: "xoxb-test"},
		Trello: config.TrelloConfig{APIKey: "key", Token: "token"},
		LawPay: config.LawPayConfig{APIKey: "key", Environment: "test"},
	}
}

func newProxyFixture(cfg *config.Config) *proxyFixture {
	f := &proxyFixture{
		slackAPI:     &fakeSlackAPI{},
		trello:       &fakeTrelloAPI{},
		audits:       &captureAuditRepo{},
		integrations: newStubIntegrationRepo(),
		userID:       uuid.New(),
	}

	factory := func(vendor string, rowCfg map[string]any, connected bool) (integration.Integration, error) {
		switch vendor {
		case integration.VendorDocuSign:
			return integration.NewDocuSign(&fakeDocuSignAPI{}, rowCfg, connected), nil
		case integration.VendorSlack:
			return integration.NewSlack(f.slackAPI, rowCfg, connected), nil
		case integration.VendorTrello:
			return integration.NewTrello(f.trello, rowCfg, connected), nil
		case integration.VendorLawPay:
			return integration.NewLawPay(&fakeLawPayAPI{}, rowCfg, connected), nil
		default:
			return nil, apperr.Newf(apperr.KindValidation, "Unknown integration %q", vendor)
		}
	}

	imp := importer.NewImporter(&stubClientRepo{}, stubImportRepo{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	f.handler = handler.NewProxyHandler(cfg, factory, imp, audit.NewRecorder(f.audits), f.integrations)
	return f
}

func (f *proxyFixture) post(t *testing.T, fn http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/proxy/test", bytes.NewReader(raw))
	r = r.WithContext(middleware.WithIdentity(r.Context(), &auth.Identity{UserID: f.userID}))
	w := httptest.NewRecorder()
	fn(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- Tests ---

func TestProxy_UnknownAction(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	endpoints := map[string]http.HandlerFunc{
		"docusign": f.handler.DocuSign,
		"slack":    f.handler.Slack,
		"trello":   f.handler.Trello,
		"lawpay":   f.handler.LawPay,
	}

	for vendor, fn := range endpoints {
		w := f.post(t, fn, map[string]any{"action": "do_everything"})
		assert.Equal(t, http.StatusBadRequest, w.Code, vendor)
		assert.JSONEq(t, `{"error":"Invalid action"}`, w.Body.String(), vendor)
	}
}

func TestProxy_MalformedBody(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())

	r := httptest.NewRequest(http.MethodPost, "/proxy/slack", bytes.NewReader([]byte("{not json")))
	r = r.WithContext(middleware.WithIdentity(r.Context(), &auth.Identity{UserID: f.userID}))
	w := httptest.NewRecorder()
	f.handler.Slack(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())
}

func TestProxy_MissingCredentials(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(&config.Config{})

	w := f.post(t, f.handler.Slack, map[string]any{"action": "test_connection"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Slack integration is not configured", body["message"])
	assert.Equal(t, "missing credentials", body["error"])
}

func TestProxySlack_GetChannels(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	w := f.post(t, f.handler.Slack, map[string]any{"action": "get_channels"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	channels := body["channels"].([]any)
	require.Len(t, channels, 2)
	first := channels[0].(map[string]any)
	assert.Equal(t, "C1", first["id"])
	assert.Equal(t, "general", first["name"])
	assert.Equal(t, float64(12), first["memberCount"])
}

func TestProxySlack_SendMessageRequiresChannelAndText(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	w := f.post(t, f.handler.Slack, map[string]any{
		"action": "send_message",
		"data":   map[string]any{"channel": "C1"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Channel and text are required", body["message"])
	assert.False(t, f.slackAPI.postCalled)
}

func TestProxySlack_SendMessageRecordsAudit(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	clientID := uuid.New()

	w := f.post(t, f.handler.Slack, map[string]any{
		"action": "send_message",
		"data": map[string]any{
			"channel":     "C1",
			"text":        "Your invoice is overdue",
			"clientId":    clientID.String(),
			"messageType": "payment_reminder",
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "1727912345.000100", body["messageId"])
	assert.Equal(t, "C1", body["channel"])

	require.Len(t, f.audits.efforts, 1)
	effort := f.audits.efforts[0]
	assert.Equal(t, "slack", effort.Vendor)
	assert.Equal(t, "send_message", effort.Action)
	assert.Equal(t, "payment_reminder", effort.Detail)
	require.NotNil(t, effort.ClientID)
	assert.Equal(t, clientID, *effort.ClientID)
	require.NotNil(t, effort.UserID)
	assert.Equal(t, f.userID, *effort.UserID)
}

func TestProxySlack_VendorFailure(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	f.slackAPI.postErr = apperr.New(apperr.KindAuth, "Slack authentication failed")

	w := f.post(t, f.handler.Slack, map[string]any{
		"action": "send_message",
		"data":   map[string]any{"channel": "C1", "text": "hello"},
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to send message", body["message"])
	assert.Equal(t, "Slack authentication failed", body["error"])
	assert.Empty(t, f.audits.efforts)
}

func TestProxyTrello_CreateCardRequiresListAndName(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	w := f.post(t, f.handler.Trello, map[string]any{
		"action": "create_card",
		"data":   map[string]any{"name": "Follow up"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "List ID and card name are required", body["message"])
	assert.False(t, f.trello.createCalled)
}

func TestProxyTrello_GetListsRequiresBoard(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	w := f.post(t, f.handler.Trello, map[string]any{"action": "get_lists"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Board ID is required", decodeBody(t, w)["message"])
}

func TestProxyTrello_CreateCard(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	clientID := uuid.New()

	w := f.post(t, f.handler.Trello, map[string]any{
		"action": "create_card",
		"data": map[string]any{
			"listId":      "l1",
			"name":        "Call about overdue balance",
			"description": "Balance: $1,250.00",
			"clientId":    clientID.String(),
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	card := body["card"].(map[string]any)
	assert.Equal(t, "c1", card["id"])
	assert.Equal(t, "Call about overdue balance", card["name"])

	require.Len(t, f.audits.efforts, 1)
	assert.Equal(t, "trello", f.audits.efforts[0].Vendor)
	assert.Equal(t, "create_card", f.audits.efforts[0].Action)
}

func TestProxyDocuSign_CreateEnvelope(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	clientID := uuid.New()

	w := f.post(t, f.handler.DocuSign, map[string]any{
		"action": "create_envelope",
		"data": map[string]any{
			"documentName":    "Engagement Letter",
			"documentContent": "JVBERi0xLjQ=",
			"signers":         []map[string]any{{"name": "Ada Lovelace", "email": "ada@example.com", "role": "client"}},
			"clientInfo":      map[string]any{"id": clientID.String(), "name": "Ada Lovelace"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "env-123", body["envelopeId"])
	assert.Equal(t, "sent", body["status"])

	require.Len(t, f.audits.efforts, 1)
	assert.Equal(t, "docusign", f.audits.efforts[0].Vendor)
	assert.Equal(t, "Engagement Letter", f.audits.efforts[0].Detail)
}

func TestProxyDocuSign_CreateEnvelopeValidation(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	w := f.post(t, f.handler.DocuSign, map[string]any{
		"action": "create_envelope",
		"data":   map[string]any{"documentName": "Engagement Letter"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Document name, content and signers are required", decodeBody(t, w)["message"])
}

func TestProxyLawPay_ImportData(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	w := f.post(t, f.handler.LawPay, map[string]any{"action": "import_data"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	clients := body["clients"].(map[string]any)
	assert.Equal(t, float64(1), clients["imported"])
	assert.Equal(t, float64(0), clients["errors"])
	transactions := body["transactions"].(map[string]any)
	assert.Equal(t, float64(1), transactions["imported"])
}

func TestProxyLawPay_ImportDataStampsLastSync(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	f.integrations.rows["lawpay"] = &integration.UserIntegration{
		UserID: f.userID,
		Vendor: "lawpay",
		Status: integration.StatusConnected,
	}

	w := f.post(t, f.handler.LawPay, map[string]any{"action": "import_data"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"lawpay"}, f.integrations.synced)
	require.NotNil(t, f.integrations.rows["lawpay"].LastSyncedAt)
	assert.WithinDuration(t, time.Now(), *f.integrations.rows["lawpay"].LastSyncedAt, time.Minute)
}

func TestProxyLawPay_ImportDataWithoutPersistedRow(t *testing.T) {
	t.Parallel()

	// Server-credential imports work without a persisted integration row;
	// the missing stamp target must not fail the request.
	f := newProxyFixture(fullConfig())
	w := f.post(t, f.handler.LawPay, map[string]any{"action": "import_data"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
	assert.Empty(t, f.integrations.rows)
}

func TestProxy_AuditSkippedWithoutClientID(t *testing.T) {
	t.Parallel()

	f := newProxyFixture(fullConfig())
	w := f.post(t, f.handler.Slack, map[string]any{
		"action": "send_message",
		"data":   map[string]any{"channel": "C1", "text": "hello"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.audits.efforts)
}
