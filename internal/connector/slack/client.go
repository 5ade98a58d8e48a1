// Package slack implements the Slack Web API connector used for posting
// collection messages and listing channels.
package slack

import (
	"context"
	"net/http"
	"net/url"

	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/connector/rest"
)

const defaultBaseURL = "https://slack.com/api"

// Client calls the Slack Web API with a bot token.
type Client struct {
	rest  rest.Client
	token string
}

// NewClient creates a Slack client. Channel listings are GET-heavy, so the
// transport caches conditional responses.
func NewClient(botToken string) *Client {
	return &Client{
		rest: rest.Client{
			BaseURL:    defaultBaseURL,
			HTTPClient: rest.NewHTTPClient(true),
		},
		token: botToken,
	}
}

// NewClientWithHTTPClient creates a Client against a custom base URL.
// Intended for tests with httptest servers.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, botToken string) *Client {
	return &Client{
		rest:  rest.Client{BaseURL: baseURL, HTTPClient: httpClient},
		token: botToken,
	}
}

// Team identifies the workspace the bot token belongs to.
type Team struct {
	TeamID string
	Team   string
	BotID  string
}

// Channel is one conversation visible to the bot.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsPrivate   bool   `json:"isPrivate"`
	MemberCount int    `json:"memberCount"`
}

// MessageRef identifies a posted message.
type MessageRef struct {
	MessageID string `json:"messageId"`
	Channel   string `json:"channel"`
}

type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// AuthTest verifies the bot token and returns workspace identity.
func (c *Client) AuthTest(ctx context.Context) (*Team, error) {
	var resp struct {
		apiEnvelope
		Team   string `json:"team"`
		TeamID string `json:"team_id"`
		BotID  string `json:"bot_id"`
	}

	if err := c.call(ctx, rest.Request{Method: http.MethodPost, Path: "auth.test"}, &resp.apiEnvelope, &resp); err != nil {
		return nil, err
	}

	return &Team{TeamID: resp.TeamID, Team: resp.Team, BotID: resp.BotID}, nil
}

// ListChannels returns the public and private channels visible to the bot.
// A single page of up to 200 conversations is fetched.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var resp struct {
		apiEnvelope
		Channels []struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			IsPrivate  bool   `json:"is_private"`
			NumMembers int    `json:"num_members"`
		} `json:"channels"`
	}

	req := rest.Request{
		Method: http.MethodGet,
		Path:   "conversations.list",
		Query: url.Values{
			"types": {"public_channel,private_channel"},
			"limit": {"200"},
		},
	}
	if err := c.call(ctx, req, &resp.apiEnvelope, &resp); err != nil {
		return nil, err
	}

	channels := make([]Channel, 0, len(resp.Channels))
	for _, ch := range resp.Channels {
		channels = append(channels, Channel{
			ID:          ch.ID,
			Name:        ch.Name,
			IsPrivate:   ch.IsPrivate,
			MemberCount: ch.NumMembers,
		})
	}
	return channels, nil
}

// PostMessage posts text to a channel and returns the message reference.
func (c *Client) PostMessage(ctx context.Context, channel, text string) (*MessageRef, error) {
	var resp struct {
		apiEnvelope
		Channel string `json:"channel"`
		TS      string `json:"ts"`
	}

	req := rest.Request{
		Method: http.MethodPost,
		Path:   "chat.postMessage",
		Body:   map[string]string{"channel": channel, "text": text},
	}
	if err := c.call(ctx, req, &resp.apiEnvelope, &resp); err != nil {
		return nil, err
	}

	return &MessageRef{MessageID: resp.TS, Channel: resp.Channel}, nil
}

// call performs the request with bearer auth and converts Slack's in-band
// `ok:false` errors to taxonomy errors.
func (c *Client) call(ctx context.Context, req rest.Request, env *apiEnvelope, out any) error {
	if req.Headers == nil {
		req.Headers = http.Header{}
	}
	req.Headers.Set("Authorization", "Bearer "+c.token)

	if err := c.rest.DoJSON(ctx, req, out); err != nil {
		return err
	}
	if !env.OK {
		return slackError(env.Error)
	}
	return nil
}

func slackError(code string) error {
	switch code {
	case "invalid_auth", "not_authed", "token_revoked", "token_expired", "account_inactive":
		return apperr.Newf(apperr.KindAuth, "Slack rejected the bot token (%s)", code)
	case "missing_scope", "restricted_action":
		return apperr.Newf(apperr.KindPermission, "Slack bot is missing a required scope (%s)", code)
	case "channel_not_found":
		return apperr.New(apperr.KindNotFound, "Slack channel not found")
	case "ratelimited", "rate_limited":
		return apperr.New(apperr.KindNetwork, "Slack rate limit reached")
	case "invalid_arguments", "no_text", "msg_too_long":
		return apperr.Newf(apperr.KindValidation, "Slack rejected the message (%s)", code)
	default:
		return apperr.Newf(apperr.KindUnknown, "Slack API error (%s)", code)
	}
}
