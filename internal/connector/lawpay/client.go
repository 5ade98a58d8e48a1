// Package lawpay implements the LawPay (AffiniPay) REST connector used for
// the one-shot contact and transaction import.
package lawpay

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lexrelay/lexrelay/internal/connector/rest"
)

const (
	liveBaseURL = "https://api.affinipay.com"
	testBaseURL = "https://api.sandbox.affinipay.com"
)

// Client calls the LawPay API with a secret key. Environment selects the
// live or test host.
type Client struct {
	rest rest.Client
	key  string
}

// NewClient creates a LawPay client for the given environment ("live" or
// "test"; anything else falls back to test).
func NewClient(apiKey, environment string) *Client {
	base := testBaseURL
	if strings.EqualFold(environment, "live") {
		base = liveBaseURL
	}
	return &Client{
		rest: rest.Client{
			BaseURL:    base,
			HTTPClient: rest.NewHTTPClient(false),
		},
		key: apiKey,
	}
}

// NewClientWithHTTPClient creates a Client against a custom base URL.
// Intended for tests with httptest servers.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, apiKey string) *Client {
	return &Client{
		rest: rest.Client{BaseURL: baseURL, HTTPClient: httpClient},
		key:  apiKey,
	}
}

// Contact is a LawPay billing contact.
type Contact struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Name renders the contact's display name.
func (c Contact) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Transaction is one LawPay payment transaction. Amount is in cents.
type Transaction struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Created   time.Time `json:"created"`
}

// Ping verifies the API key with a minimal contacts request.
func (c *Client) Ping(ctx context.Context) error {
	var resp struct {
		Results []Contact `json:"results"`
	}
	return c.get(ctx, "v1/contacts", url.Values{"limit": {"1"}}, &resp)
}

// Contacts fetches a single page of up to 500 contacts. The import is a
// one-shot snapshot; no cursor following.
func (c *Client) Contacts(ctx context.Context) ([]Contact, error) {
	var resp struct {
		Results []Contact `json:"results"`
	}
	if err := c.get(ctx, "v1/contacts", url.Values{"limit": {"500"}}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Transactions fetches a single page of up to 500 transactions.
func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	var resp struct {
		Results []Transaction `json:"results"`
	}
	if err := c.get(ctx, "v1/transactions", url.Values{"limit": {"500"}}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.rest.DoJSON(ctx, rest.Request{
		Method:  http.MethodGet,
		Path:    path,
		Query:   query,
		Headers: http.Header{"Authorization": {"Bearer " + c.key}},
	}, out)
}
