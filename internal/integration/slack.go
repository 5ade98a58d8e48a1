package integration

import (
	"context"

	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/connector/slack"
)

// SlackAPI is the slice of the Slack connector used by the wrapper.
type SlackAPI interface {
	AuthTest(ctx context.Context) (*slack.Team, error)
	ListChannels(ctx context.Context) ([]slack.Channel, error)
	PostMessage(ctx context.Context, channel, text string) (*slack.MessageRef, error)
}

// Slack posts collection notifications to workspace channels.
type Slack struct {
	state
	api SlackAPI
}

// NewSlack creates the Slack wrapper over the given connector.
func NewSlack(api SlackAPI, config map[string]any, connected bool) *Slack {
	return &Slack{
		state: state{name: VendorSlack, config: config, connected: connected},
		api:   api,
	}
}

// Connect validates the bot token and records the workspace identity.
func (s *Slack) Connect(ctx context.Context) error {
	team, err := s.api.AuthTest(ctx)
	if err != nil {
		return apperr.Normalize(err)
	}

	s.connected = true
	s.mergeConfig(map[string]any{
		"team":    team.Team,
		"team_id": team.TeamID,
	})
	return nil
}

// Disconnect clears the connected flag.
func (s *Slack) Disconnect(context.Context) error {
	s.connected = false
	return nil
}

// TestConnection checks vendor reachability without mutating state.
func (s *Slack) TestConnection(ctx context.Context) error {
	if _, err := s.api.AuthTest(ctx); err != nil {
		return apperr.Normalize(err)
	}
	return nil
}

// GetChannels lists the channels visible to the bot.
func (s *Slack) GetChannels(ctx context.Context) ([]slack.Channel, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}

	channels, err := s.api.ListChannels(ctx)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	return channels, nil
}

// SendMessage posts text to a channel.
func (s *Slack) SendMessage(ctx context.Context, channel, text string) (*slack.MessageRef, error) {
	if err := s.requireConnected(); err != nil {
		return nil, err
	}

	ref, err := s.api.PostMessage(ctx, channel, text)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	return ref, nil
}
