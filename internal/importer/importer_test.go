package importer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexrelay/lexrelay/internal/client"
	"github.com/lexrelay/lexrelay/internal/connector/lawpay"
	"github.com/lexrelay/lexrelay/internal/importer"
)

// --- Mock client repository ---

type mockClientRepo struct {
	created   []client.Client
	failEmail string // Create fails for this email
}

func (m *mockClientRepo) Create(_ context.Context, c *client.Client) error {
	if m.failEmail != "" && c.Email == m.failEmail {
		return errors.New("insert failed")
	}
	c.ID = uuid.New()
	m.created = append(m.created, *c)
	return nil
}

func (m *mockClientRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (*client.Client, error) {
	return nil, client.ErrClientNotFound
}

func (m *mockClientRepo) List(context.Context, uuid.UUID, client.ListFilter) (*client.ListResult, error) {
	return &client.ListResult{}, nil
}

func (m *mockClientRepo) Update(context.Context, uuid.UUID, uuid.UUID, client.UpdateFields) (*client.Client, error) {
	return nil, client.ErrClientNotFound
}

func (m *mockClientRepo) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return client.ErrClientNotFound
}

// --- Mock import repository ---

type mappingKey struct {
	platform   string
	externalID string
}

type mockImportRepo struct {
	mappings     map[mappingKey]uuid.UUID
	transactions map[string]importer.ImportedTransaction // keyed by external id
}

func newMockImportRepo() *mockImportRepo {
	return &mockImportRepo{
		mappings:     make(map[mappingKey]uuid.UUID),
		transactions: make(map[string]importer.ImportedTransaction),
	}
}

func (m *mockImportRepo) LookupMapping(_ context.Context, _ uuid.UUID, platform, externalID string) (uuid.UUID, error) {
	if id, ok := m.mappings[mappingKey{platform, externalID}]; ok {
		return id, nil
	}
	return uuid.Nil, importer.ErrMappingNotFound
}

func (m *mockImportRepo) CreateMapping(_ context.Context, _ uuid.UUID, platform, externalID string, clientID uuid.UUID) error {
	m.mappings[mappingKey{platform, externalID}] = clientID
	return nil
}

func (m *mockImportRepo) RecordTransaction(_ context.Context, row *importer.ImportedTransaction) (bool, error) {
	if _, ok := m.transactions[row.ExternalID]; ok {
		return false, nil
	}
	m.transactions[row.ExternalID] = *row
	return true, nil
}

// --- Fake source ---

type fakeSource struct {
	contacts        []lawpay.Contact
	transactions    []lawpay.Transaction
	contactsErr     error
	transactionsErr error
}

func (f *fakeSource) FetchContacts(context.Context) ([]lawpay.Contact, error) {
	return f.contacts, f.contactsErr
}

func (f *fakeSource) FetchTransactions(context.Context) ([]lawpay.Transaction, error) {
	return f.transactions, f.transactionsErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Tests ---

func TestImportData_ImportsContactsAndTransactions(t *testing.T) {
	t.Parallel()

	clients := &mockClientRepo{}
	repo := newMockImportRepo()
	imp := importer.NewImporter(clients, repo, discardLogger())

	src := &fakeSource{
		contacts: []lawpay.Contact{
			{ID: "ct_1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "5551234567"},
			{ID: "ct_2", FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"},
		},
		transactions: []lawpay.Transaction{
			{ID: "tx_1", ContactID: "ct_1", Amount: 125000, Status: "settled", Created: time.Now()},
			{ID: "tx_2", ContactID: "ct_2", Amount: 9900, Status: "settled", Created: time.Now()},
		},
	}

	summary, err := imp.ImportData(context.Background(), uuid.New(), src)
	require.NoError(t, err)

	assert.Equal(t, importer.Tally{Imported: 2, Errors: 0}, summary.Clients)
	assert.Equal(t, importer.Tally{Imported: 2, Errors: 0}, summary.Transactions)

	require.Len(t, clients.created, 2)
	assert.Equal(t, "Ada Lovelace", clients.created[0].Name)
	assert.Equal(t, importer.SourceLawPay, clients.created[0].Source)
	require.NotNil(t, clients.created[0].ExternalID)
	assert.Equal(t, "ct_1", *clients.created[0].ExternalID)

	// Cents are converted to dollars on the way in.
	assert.InDelta(t, 1250.00, repo.transactions["tx_1"].Amount, 0.001)
	assert.InDelta(t, 99.00, repo.transactions["tx_2"].Amount, 0.001)
}

func TestImportData_SkipsAlreadyMappedContacts(t *testing.T) {
	t.Parallel()

	clients := &mockClientRepo{}
	repo := newMockImportRepo()
	repo.mappings[mappingKey{importer.SourceLawPay, "ct_1"}] = uuid.New()
	imp := importer.NewImporter(clients, repo, discardLogger())

	src := &fakeSource{
		contacts: []lawpay.Contact{
			{ID: "ct_1", FirstName: "Ada", LastName: "Lovelace"},
			{ID: "ct_2", FirstName: "Alan", LastName: "Turing"},
		},
	}

	summary, err := imp.ImportData(context.Background(), uuid.New(), src)
	require.NoError(t, err)

	assert.Equal(t, importer.Tally{Imported: 1, Errors: 0}, summary.Clients)
	require.Len(t, clients.created, 1)
	assert.Equal(t, "Alan Turing", clients.created[0].Name)
}

func TestImportData_ContinuesPastRecordFailures(t *testing.T) {
	t.Parallel()

	clients := &mockClientRepo{failEmail: "bad@example.com"}
	repo := newMockImportRepo()
	imp := importer.NewImporter(clients, repo, discardLogger())

	src := &fakeSource{
		contacts: []lawpay.Contact{
			{ID: "ct_1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			{ID: "ct_2", FirstName: "Bad", LastName: "Row", Email: "bad@example.com"},
			{ID: "ct_3", FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"},
		},
	}

	summary, err := imp.ImportData(context.Background(), uuid.New(), src)
	require.NoError(t, err)

	assert.Equal(t, importer.Tally{Imported: 2, Errors: 1}, summary.Clients)
	assert.Len(t, clients.created, 2)
}

func TestImportData_SkipsDuplicateTransactions(t *testing.T) {
	t.Parallel()

	repo := newMockImportRepo()
	repo.transactions["tx_1"] = importer.ImportedTransaction{ExternalID: "tx_1"}
	imp := importer.NewImporter(&mockClientRepo{}, repo, discardLogger())

	src := &fakeSource{
		transactions: []lawpay.Transaction{
			{ID: "tx_1", ContactID: "ct_1", Amount: 1000},
			{ID: "tx_2", ContactID: "ct_1", Amount: 2000},
		},
	}

	summary, err := imp.ImportData(context.Background(), uuid.New(), src)
	require.NoError(t, err)

	assert.Equal(t, importer.Tally{Imported: 1, Errors: 0}, summary.Transactions)
}

func TestImportData_FetchFailureAbortsRun(t *testing.T) {
	t.Parallel()

	imp := importer.NewImporter(&mockClientRepo{}, newMockImportRepo(), discardLogger())

	src := &fakeSource{contactsErr: errors.New("upstream unavailable")}
	summary, err := imp.ImportData(context.Background(), uuid.New(), src)
	require.Error(t, err)
	assert.Nil(t, summary)
}

func TestImportData_ContactWithoutNameFallsBackToEmail(t *testing.T) {
	t.Parallel()

	clients := &mockClientRepo{}
	imp := importer.NewImporter(clients, newMockImportRepo(), discardLogger())

	src := &fakeSource{
		contacts: []lawpay.Contact{{ID: "ct_1", Email: "firm@example.com"}},
	}

	_, err := imp.ImportData(context.Background(), uuid.New(), src)
	require.NoError(t, err)
	require.Len(t, clients.created, 1)
	assert.Equal(t, "firm@example.com", clients.created[0].Name)
}
