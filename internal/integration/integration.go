// Package integration wraps each external vendor behind a uniform
// connect/disconnect/test capability interface and provides the per-user
// registry that tracks which vendors a user has configured.
package integration

import (
	"context"

	"github.com/lexrelay/lexrelay/internal/apperr"
)

// Vendor names recognized by the registry. Names are matched
// case-insensitively.
const (
	VendorDocuSign = "docusign"
	VendorSlack    = "slack"
	VendorTrello   = "trello"
	VendorLawPay   = "lawpay"
)

// Integration is the capability contract every vendor wrapper implements.
// Vendor-specific action methods live on the concrete types; each action
// performs exactly one round trip and never retries internally.
type Integration interface {
	// Name returns the canonical lowercase vendor name.
	Name() string

	// Connect validates credentials against the vendor and marks the
	// integration connected.
	Connect(ctx context.Context) error

	// Disconnect clears the connected flag. It does not call the vendor.
	Disconnect(ctx context.Context) error

	// TestConnection checks vendor reachability without changing state.
	TestConnection(ctx context.Context) error

	// Connected reports whether Connect has succeeded (or the persisted
	// config was loaded in a connected state).
	Connected() bool
}

// state carries the connection flag and persisted config shared by all
// vendor wrappers.
type state struct {
	name      string
	connected bool
	config    map[string]any
}

func (s *state) Name() string    { return s.name }
func (s *state) Connected() bool { return s.connected }

// requireConnected gates every vendor action method.
func (s *state) requireConnected() error {
	if !s.connected {
		return apperr.Newf(apperr.KindValidation, "%s integration is not connected", s.name)
	}
	return nil
}

// Config returns the persisted configuration for this integration.
func (s *state) Config() map[string]any {
	return s.config
}

// mergeConfig folds vendor-returned fields into the persisted config.
func (s *state) mergeConfig(fields map[string]any) {
	if s.config == nil {
		s.config = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		s.config[k] = v
	}
}
