package integration

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/config"
	"github.com/lexrelay/lexrelay/internal/connector/docusign"
	"github.com/lexrelay/lexrelay/internal/connector/lawpay"
	"github.com/lexrelay/lexrelay/internal/connector/slack"
	"github.com/lexrelay/lexrelay/internal/connector/trello"
)

// Factory constructs a vendor wrapper from its persisted row state.
// Unknown vendor names fail with a VALIDATION-kind error.
type Factory func(vendor string, cfg map[string]any, connected bool) (Integration, error)

// NewFactory builds the production factory over the server-held vendor
// credentials.
func NewFactory(cfg *config.Config) Factory {
	return func(vendor string, rowCfg map[string]any, connected bool) (Integration, error) {
		switch strings.ToLower(vendor) {
		case VendorDocuSign:
			ds := cfg.DocuSign
			return NewDocuSign(docusign.NewClient(ds.IntegrationKey, ds.UserID, ds.AccountID, ds.PrivateKey), rowCfg, connected), nil
		case VendorSlack:
			return NewSlack(slack.NewClient(cfg.Slack.BotToken), rowCfg, connected), nil
		case VendorTrello:
			return NewTrello(trello.NewClient(cfg.Trello.APIKey, cfg.Trello.Token), rowCfg, connected), nil
		case VendorLawPay:
			return NewLawPay(lawpay.NewClient(cfg.LawPay.APIKey, cfg.LawPay.Environment), rowCfg, connected), nil
		default:
			return nil, apperr.Newf(apperr.KindValidation, "Unknown integration %q", vendor)
		}
	}
}

// ConnectionStatus is one vendor's result from TestAll.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Manager is the registry of a single user's integrations. Its lifecycle is
// tied to the authenticated user: handlers create one per user, load the
// persisted rows, and operate through it. The registry map is guarded so a
// connection test can run while another request mutates the set.
type Manager struct {
	userID  uuid.UUID
	repo    Repository
	factory Factory

	mu       sync.RWMutex
	registry map[string]Integration
}

// NewManager creates an empty registry for one user.
func NewManager(userID uuid.UUID, repo Repository, factory Factory) *Manager {
	return &Manager{
		userID:   userID,
		repo:     repo,
		factory:  factory,
		registry: make(map[string]Integration),
	}
}

// Load reads the user's persisted integration rows and instantiates one
// wrapper per row.
func (m *Manager) Load(ctx context.Context) error {
	rows, err := m.repo.ListByUser(ctx, m.userID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry = make(map[string]Integration, len(rows))
	for _, row := range rows {
		inst, err := m.factory(row.Vendor, row.Config, row.Status == StatusConnected)
		if err != nil {
			return err
		}
		m.registry[strings.ToLower(row.Vendor)] = inst
	}
	return nil
}

// Add constructs and registers an integration by vendor name. The registry
// is left unchanged when the name is not recognized.
func (m *Manager) Add(name string, cfg map[string]any) (Integration, error) {
	inst, err := m.factory(name, cfg, false)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry[strings.ToLower(name)] = inst
	return inst, nil
}

// Get returns the registered integration for a vendor name.
func (m *Manager) Get(name string) (Integration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.registry[strings.ToLower(name)]
	return inst, ok
}

// Names returns the sorted vendor names currently registered.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.registry))
	for name := range m.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save persists the current state of a registered integration.
func (m *Manager) Save(ctx context.Context, name string) error {
	inst, ok := m.Get(name)
	if !ok {
		return apperr.Newf(apperr.KindValidation, "Unknown integration %q", name)
	}

	status := StatusDisconnected
	if inst.Connected() {
		status = StatusConnected
	}

	var cfg map[string]any
	if holder, ok := inst.(interface{ Config() map[string]any }); ok {
		cfg = holder.Config()
	}

	return m.repo.Upsert(ctx, &UserIntegration{
		UserID: m.userID,
		Vendor: strings.ToLower(name),
		Config: cfg,
		Status: status,
	})
}

// Remove disconnects an integration, deletes its persisted row and drops it
// from the registry.
func (m *Manager) Remove(ctx context.Context, name string) error {
	key := strings.ToLower(name)

	inst, ok := m.Get(key)
	if !ok {
		return apperr.Newf(apperr.KindValidation, "Unknown integration %q", name)
	}

	if err := inst.Disconnect(ctx); err != nil {
		return err
	}

	if err := m.repo.Delete(ctx, m.userID, key); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.registry, key)
	m.mu.Unlock()
	return nil
}

// TestAll runs every registered integration's connectivity check. One
// vendor's failure never aborts the others; each vendor reports its own
// status.
func (m *Manager) TestAll(ctx context.Context) map[string]ConnectionStatus {
	m.mu.RLock()
	instances := make(map[string]Integration, len(m.registry))
	for name, inst := range m.registry {
		instances[name] = inst
	}
	m.mu.RUnlock()

	results := make(map[string]ConnectionStatus, len(instances))
	for name, inst := range instances {
		if err := inst.TestConnection(ctx); err != nil {
			results[name] = ConnectionStatus{Connected: false, Error: apperr.Normalize(err).Message}
			continue
		}
		results[name] = ConnectionStatus{Connected: true}
	}
	return results
}
