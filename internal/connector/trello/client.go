// Package trello implements the Trello REST connector used for tracking
// collection tasks as cards.
package trello

import (
	"context"
	"net/http"
	"net/url"

	"github.com/lexrelay/lexrelay/internal/connector/rest"
)

const defaultBaseURL = "https://api.trello.com/1"

// Client calls the Trello REST API with a key/token pair.
type Client struct {
	rest   rest.Client
	apiKey string
	token  string
}

// NewClient creates a Trello client. Board and list lookups are GET-heavy,
// so the transport caches conditional responses.
func NewClient(apiKey, token string) *Client {
	return &Client{
		rest: rest.Client{
			BaseURL:    defaultBaseURL,
			HTTPClient: rest.NewHTTPClient(true),
		},
		apiKey: apiKey,
		token:  token,
	}
}

// NewClientWithHTTPClient creates a Client against a custom base URL.
// Intended for tests with httptest servers.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, apiKey, token string) *Client {
	return &Client{
		rest:   rest.Client{BaseURL: baseURL, HTTPClient: httpClient},
		apiKey: apiKey,
		token:  token,
	}
}

// Member is the authenticated Trello member.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// Board is one board visible to the member.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// List is one list on a board.
type List struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

// Card is a created card.
type Card struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	ShortURL string `json:"shortUrl"`
}

// Me verifies the credentials and returns the authenticated member.
func (c *Client) Me(ctx context.Context) (*Member, error) {
	var m Member
	err := c.rest.DoJSON(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   "members/me",
		Query:  c.auth(url.Values{"fields": {"username,fullName"}}),
	}, &m)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Boards returns the member's open boards.
func (c *Client) Boards(ctx context.Context) ([]Board, error) {
	var boards []Board
	err := c.rest.DoJSON(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   "members/me/boards",
		Query:  c.auth(url.Values{"fields": {"name,url"}, "filter": {"open"}}),
	}, &boards)
	if err != nil {
		return nil, err
	}
	if boards == nil {
		boards = []Board{}
	}
	return boards, nil
}

// Lists returns the lists on a board, including archived ones.
func (c *Client) Lists(ctx context.Context, boardID string) ([]List, error) {
	var lists []List
	err := c.rest.DoJSON(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   "boards/" + url.PathEscape(boardID) + "/lists",
		Query:  c.auth(url.Values{"fields": {"name,closed"}, "filter": {"all"}}),
	}, &lists)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []List{}
	}
	return lists, nil
}

// CreateCard creates a card at the bottom of a list.
func (c *Client) CreateCard(ctx context.Context, listID, name, description string) (*Card, error) {
	var card Card
	err := c.rest.DoJSON(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "cards",
		Query: c.auth(url.Values{
			"idList": {listID},
			"name":   {name},
			"desc":   {description},
			"pos":    {"bottom"},
		}),
	}, &card)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) auth(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	q.Set("key", c.apiKey)
	q.Set("token", c.token)
	return q
}
