// Package rest is the thin HTTP layer shared by the vendor connectors.
// Each connector makes exactly one outbound call per operation; retries are
// the caller's responsibility.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/lexrelay/lexrelay/internal/apperr"
)

// DefaultTimeout bounds every outbound vendor call.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns an http.Client for vendor traffic. With caching
// enabled, GET responses are served through an in-memory ETag-aware cache,
// which keeps repeated lookups (boards, channels) cheap.
func NewHTTPClient(cacheGETs bool) *http.Client {
	if cacheGETs {
		c := httpcache.NewMemoryCacheTransport().Client()
		c.Timeout = DefaultTimeout
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}

// Request describes one vendor API call.
type Request struct {
	Method  string
	Path    string // joined to the client's base URL
	Query   url.Values
	Headers http.Header
	Body    any // JSON-encoded when non-nil
	Form    url.Values
}

// Client issues JSON requests against a single vendor base URL.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// DoJSON performs the request and decodes a 2xx JSON response into out
// (which may be nil). Non-2xx responses produce an *apperr.StatusError
// carrying the vendor's status code and response body.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	u := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(false)
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperr.StatusError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}
