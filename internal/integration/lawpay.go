package integration

import (
	"context"

	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/connector/lawpay"
)

// LawPayAPI is the slice of the LawPay connector used by the wrapper.
type LawPayAPI interface {
	Ping(ctx context.Context) error
	Contacts(ctx context.Context) ([]lawpay.Contact, error)
	Transactions(ctx context.Context) ([]lawpay.Transaction, error)
}

// LawPay imports billing contacts and payment history.
type LawPay struct {
	state
	api LawPayAPI
}

// NewLawPay creates the LawPay wrapper over the given connector.
func NewLawPay(api LawPayAPI, config map[string]any, connected bool) *LawPay {
	return &LawPay{
		state: state{name: VendorLawPay, config: config, connected: connected},
		api:   api,
	}
}

// Connect validates the API key.
func (l *LawPay) Connect(ctx context.Context) error {
	if err := l.api.Ping(ctx); err != nil {
		return apperr.Normalize(err)
	}
	l.connected = true
	return nil
}

// Disconnect clears the connected flag.
func (l *LawPay) Disconnect(context.Context) error {
	l.connected = false
	return nil
}

// TestConnection checks vendor reachability without mutating state.
func (l *LawPay) TestConnection(ctx context.Context) error {
	if err := l.api.Ping(ctx); err != nil {
		return apperr.Normalize(err)
	}
	return nil
}

// FetchContacts retrieves the billing contacts snapshot.
func (l *LawPay) FetchContacts(ctx context.Context) ([]lawpay.Contact, error) {
	if err := l.requireConnected(); err != nil {
		return nil, err
	}

	contacts, err := l.api.Contacts(ctx)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	return contacts, nil
}

// FetchTransactions retrieves the payment transaction snapshot.
func (l *LawPay) FetchTransactions(ctx context.Context) ([]lawpay.Transaction, error) {
	if err := l.requireConnected(); err != nil {
		return nil, err
	}

	txns, err := l.api.Transactions(ctx)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	return txns, nil
}
