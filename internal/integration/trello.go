package integration

import (
	"context"

	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/connector/trello"
)

// TrelloAPI is the slice of the Trello connector used by the wrapper.
type TrelloAPI interface {
	Me(ctx context.Context) (*trello.Member, error)
	Boards(ctx context.Context) ([]trello.Board, error)
	Lists(ctx context.Context, boardID string) ([]trello.List, error)
	CreateCard(ctx context.Context, listID, name, description string) (*trello.Card, error)
}

// Trello tracks collection follow-ups as cards on a board.
type Trello struct {
	state
	api TrelloAPI
}

// NewTrello creates the Trello wrapper over the given connector.
func NewTrello(api TrelloAPI, config map[string]any, connected bool) *Trello {
	return &Trello{
		state: state{name: VendorTrello, config: config, connected: connected},
		api:   api,
	}
}

// Connect validates the key/token pair and records the member identity.
func (t *Trello) Connect(ctx context.Context) error {
	member, err := t.api.Me(ctx)
	if err != nil {
		return apperr.Normalize(err)
	}

	t.connected = true
	t.mergeConfig(map[string]any{
		"member_id": member.ID,
		"username":  member.Username,
	})
	return nil
}

// Disconnect clears the connected flag.
func (t *Trello) Disconnect(context.Context) error {
	t.connected = false
	return nil
}

// TestConnection checks vendor reachability without mutating state.
func (t *Trello) TestConnection(ctx context.Context) error {
	if _, err := t.api.Me(ctx); err != nil {
		return apperr.Normalize(err)
	}
	return nil
}

// GetBoards lists the member's open boards.
func (t *Trello) GetBoards(ctx context.Context) ([]trello.Board, error) {
	if err := t.requireConnected(); err != nil {
		return nil, err
	}

	boards, err := t.api.Boards(ctx)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	return boards, nil
}

// GetLists lists the lists on a board.
func (t *Trello) GetLists(ctx context.Context, boardID string) ([]trello.List, error) {
	if err := t.requireConnected(); err != nil {
		return nil, err
	}

	lists, err := t.api.Lists(ctx, boardID)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	return lists, nil
}

// CreateCard creates a follow-up card on a list.
func (t *Trello) CreateCard(ctx context.Context, listID, name, description string) (*trello.Card, error) {
	if err := t.requireConnected(); err != nil {
		return nil, err
	}

	card, err := t.api.CreateCard(ctx, listID, name, description)
	if err != nil {
		return nil, apperr.Normalize(err)
	}
	return card, nil
}
