// Package docusign implements the DocuSign eSignature connector used for
// dispatching engagement letters and fee agreements for signature.
package docusign

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/connector/rest"
)

const (
	defaultOAuthBaseURL = "https://account-d.docusign.com"
	defaultAPIBaseURL   = "https://demo.docusign.net/restapi"

	tokenLifetime = time.Hour
)

// Client calls the DocuSign eSignature API using the JWT grant flow: each
// API call is authorized by an access token obtained from an RS256-signed
// assertion built with the integration's private key.
type Client struct {
	oauth          rest.Client
	api            rest.Client
	integrationKey string
	userID         string
	accountID      string
	privateKeyPEM  string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a DocuSign client.
func NewClient(integrationKey, userID, accountID, privateKeyPEM string) *Client {
	httpClient := rest.NewHTTPClient(false)
	return &Client{
		oauth:          rest.Client{BaseURL: defaultOAuthBaseURL, HTTPClient: httpClient},
		api:            rest.Client{BaseURL: defaultAPIBaseURL, HTTPClient: httpClient},
		integrationKey: integrationKey,
		userID:         userID,
		accountID:      accountID,
		privateKeyPEM:  privateKeyPEM,
	}
}

// NewClientWithHTTPClient creates a Client against custom OAuth and API
// base URLs. Intended for tests with httptest servers.
func NewClientWithHTTPClient(httpClient *http.Client, oauthBaseURL, apiBaseURL, integrationKey, userID, accountID, privateKeyPEM string) *Client {
	return &Client{
		oauth:          rest.Client{BaseURL: oauthBaseURL, HTTPClient: httpClient},
		api:            rest.Client{BaseURL: apiBaseURL, HTTPClient: httpClient},
		integrationKey: integrationKey,
		userID:         userID,
		accountID:      accountID,
		privateKeyPEM:  privateKeyPEM,
	}
}

// UserInfo is the authenticated DocuSign user.
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Signer is one envelope recipient.
type Signer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// EnvelopeRequest describes a document to dispatch for signature.
type EnvelopeRequest struct {
	DocumentName    string
	DocumentContent string // base64-encoded file content
	Signers         []Signer
	EmailSubject    string
}

// Envelope is a dispatched envelope.
type Envelope struct {
	EnvelopeID string `json:"envelopeId"`
	Status     string `json:"status"`
}

// UserInfo verifies credentials by fetching the token owner's profile.
func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var info UserInfo
	err = c.oauth.DoJSON(ctx, rest.Request{
		Method:  http.MethodGet,
		Path:    "oauth/userinfo",
		Headers: http.Header{"Authorization": {"Bearer " + token}},
	}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateEnvelope dispatches a document for signature and returns the
// envelope id and status.
func (c *Client) CreateEnvelope(ctx context.Context, req EnvelopeRequest) (*Envelope, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	subject := req.EmailSubject
	if subject == "" {
		subject = "Please sign: " + req.DocumentName
	}

	type document struct {
		DocumentBase64 string `json:"documentBase64"`
		Name           string `json:"name"`
		FileExtension  string `json:"fileExtension"`
		DocumentID     string `json:"documentId"`
	}
	type signer struct {
		Email       string `json:"email"`
		Name        string `json:"name"`
		RecipientID string `json:"recipientId"`
		RoleName    string `json:"roleName,omitempty"`
	}

	signers := make([]signer, 0, len(req.Signers))
	for i, s := range req.Signers {
		signers = append(signers, signer{
			Email:       s.Email,
			Name:        s.Name,
			RecipientID: fmt.Sprintf("%d", i+1),
			RoleName:    s.Role,
		})
	}

	body := map[string]any{
		"emailSubject": subject,
		"documents": []document{{
			DocumentBase64: req.DocumentContent,
			Name:           req.DocumentName,
			FileExtension:  "pdf",
			DocumentID:     "1",
		}},
		"recipients": map[string]any{"signers": signers},
		"status":     "sent",
	}

	var env Envelope
	err = c.api.DoJSON(ctx, rest.Request{
		Method:  http.MethodPost,
		Path:    "v2.1/accounts/" + url.PathEscape(c.accountID) + "/envelopes",
		Headers: http.Header{"Authorization": {"Bearer " + token}},
		Body:    body,
	}, &env)
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// token returns a cached access token, requesting a new one via the JWT
// grant when the cached token is missing or near expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	assertion, err := c.buildAssertion()
	if err != nil {
		return "", err
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	err = c.oauth.DoJSON(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "oauth/token",
		Form: url.Values{
			"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
			"assertion":  {assertion},
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", apperr.New(apperr.KindAuth, "DocuSign returned an empty access token")
	}

	c.accessToken = resp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func (c *Client) buildAssertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.privateKeyPEM))
	if err != nil {
		return "", apperr.New(apperr.KindAuth, "DocuSign private key is not a valid RSA PEM").Wrap(err)
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":   c.integrationKey,
		"sub":   c.userID,
		"aud":   hostOf(c.oauth.BaseURL),
		"scope": "signature impersonation",
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing grant assertion: %w", err)
	}
	return assertion, nil
}

func hostOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Host
}
