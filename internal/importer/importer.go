// Package importer pulls a user's LawPay billing snapshot into local client
// and transaction records.
package importer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexrelay/lexrelay/internal/client"
	"github.com/lexrelay/lexrelay/internal/connector/lawpay"
)

// SourceLawPay is the clients.source value stamped on imported records.
const SourceLawPay = "lawpay"

// ErrMappingNotFound is returned when no platform mapping exists for an
// external id.
var ErrMappingNotFound = errors.New("platform client mapping not found")

// ImportedTransaction is a row in lawpay_transaction_import. Amount is in
// dollars.
type ImportedTransaction struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	ExternalID       string
	ClientExternalID string
	Amount           float64
	Status           string
	OccurredAt       *time.Time
	ImportedAt       time.Time
}

// Repository persists import bookkeeping: the platform_client_mapping rows
// that de-duplicate contacts across runs, and the imported transaction log.
type Repository interface {
	// LookupMapping returns the local client id mapped to an external id,
	// or ErrMappingNotFound.
	LookupMapping(ctx context.Context, userID uuid.UUID, platform, externalID string) (uuid.UUID, error)
	CreateMapping(ctx context.Context, userID uuid.UUID, platform, externalID string, clientID uuid.UUID) error
	// RecordTransaction inserts one imported transaction. It reports false
	// when the transaction was already recorded by an earlier run.
	RecordTransaction(ctx context.Context, row *ImportedTransaction) (bool, error)
}

// Source is the LawPay surface the importer reads from. It matches the
// connected integration wrapper, so an import through a disconnected
// integration fails the same way any other vendor action does.
type Source interface {
	FetchContacts(ctx context.Context) ([]lawpay.Contact, error)
	FetchTransactions(ctx context.Context) ([]lawpay.Transaction, error)
}

// Tally counts the outcome of one entity type's import.
type Tally struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
}

// Summary is the result of one import run.
type Summary struct {
	Clients      Tally `json:"clients"`
	Transactions Tally `json:"transactions"`
}

// Importer runs one-shot LawPay bulk imports.
type Importer struct {
	clients client.Repository
	repo    Repository
	logger  *slog.Logger
}

// NewImporter creates an Importer over the given repositories.
func NewImporter(clients client.Repository, repo Repository, logger *slog.Logger) *Importer {
	return &Importer{clients: clients, repo: repo, logger: logger}
}

// ImportData fetches the user's LawPay contacts and transactions once each
// and imports them. Contacts already mapped by a previous run are skipped,
// as are transactions already recorded. A per-record failure is tallied and
// the run continues; only a fetch failure aborts the run.
func (i *Importer) ImportData(ctx context.Context, userID uuid.UUID, src Source) (*Summary, error) {
	summary := &Summary{}

	contacts, err := src.FetchContacts(ctx)
	if err != nil {
		return nil, err
	}
	for _, contact := range contacts {
		imported, err := i.importContact(ctx, userID, contact)
		if err != nil {
			summary.Clients.Errors++
			i.logger.Warn("contact import failed",
				"userId", userID,
				"externalId", contact.ID,
				"error", err,
			)
			continue
		}
		if imported {
			summary.Clients.Imported++
		}
	}

	transactions, err := src.FetchTransactions(ctx)
	if err != nil {
		return summary, err
	}
	for _, tx := range transactions {
		inserted, err := i.importTransaction(ctx, userID, tx)
		if err != nil {
			summary.Transactions.Errors++
			i.logger.Warn("transaction import failed",
				"userId", userID,
				"externalId", tx.ID,
				"error", err,
			)
			continue
		}
		if inserted {
			summary.Transactions.Imported++
		}
	}

	return summary, nil
}

// importContact creates a local client for a LawPay contact unless a mapping
// for it already exists. An already-mapped contact is not an error and not
// an import.
func (i *Importer) importContact(ctx context.Context, userID uuid.UUID, contact lawpay.Contact) (bool, error) {
	_, err := i.repo.LookupMapping(ctx, userID, SourceLawPay, contact.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrMappingNotFound) {
		return false, err
	}

	name := contact.Name()
	if name == "" {
		name = contact.Email
	}
	externalID := contact.ID
	c := &client.Client{
		UserID:     userID,
		Name:       name,
		Email:      contact.Email,
		Phone:      contact.Phone,
		Source:     SourceLawPay,
		ExternalID: &externalID,
	}
	if err := i.clients.Create(ctx, c); err != nil {
		return false, err
	}
	if err := i.repo.CreateMapping(ctx, userID, SourceLawPay, contact.ID, c.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (i *Importer) importTransaction(ctx context.Context, userID uuid.UUID, tx lawpay.Transaction) (bool, error) {
	row := &ImportedTransaction{
		UserID:           userID,
		ExternalID:       tx.ID,
		ClientExternalID: tx.ContactID,
		Amount:           float64(tx.Amount) / 100,
		Status:           tx.Status,
	}
	if !tx.Created.IsZero() {
		occurred := tx.Created
		row.OccurredAt = &occurred
	}
	return i.repo.RecordTransaction(ctx, row)
}
