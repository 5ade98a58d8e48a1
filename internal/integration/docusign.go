package integration

import (
	"context"

	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/connector/docusign"
)

// DocuSignAPI is the slice of the DocuSign connector used by the wrapper.
type DocuSignAPI interface {
	UserInfo(ctx context.Context) (*docusign.UserInfo, error)
	CreateEnvelope(ctx context.Context, req docusign.EnvelopeRequest) (*docusign.Envelope, error)
}

// DocuSign dispatches documents for electronic signature.
type DocuSign struct {
	state
	api DocuSignAPI
}

// NewDocuSign creates the DocuSign wrapper over the given connector.
func NewDocuSign(api DocuSignAPI, config map[string]any, connected bool) *DocuSign {
	return &DocuSign{
		state: state{name: VendorDocuSign, config: config, connected: connected},
		api:   api,
	}
}

// Connect validates the JWT-grant credentials and records the account
// identity in the config.
func (d *DocuSign) Connect(ctx context.Context) error {
	info, err := d.api.UserInfo(ctx)
	if err != nil {
		return apperr.Normalize(err)
	}

	d.connected = true
	d.mergeConfig(map[string]any{
		"account_name":  info.Name,
		"account_email": info.Email,
	})
	return nil
}

// Disconnect clears the connected flag.
func (d *DocuSign) Disconnect(context.Context) error {
	d.connected = false
	return nil
}

// TestConnection checks reachability without mutating state.
func (d *DocuSign) TestConnection(ctx context.Context) error {
	if _, err := d.api.UserInfo(ctx); err != nil {
		return apperr.Normalize(err)
	}
	return nil
}

// SendDocument dispatches an envelope and returns its id and status.
func (d *DocuSign) SendDocument(ctx context.Context, req docusign.EnvelopeRequest) (*docusign.Envelope, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}

	env, err := d.api.CreateEnvelope(ctx, req)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	return env, nil
}
