package client

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrClientNotFound is returned when a client record is not found.
var ErrClientNotFound = errors.New("client not found")

// Repository provides CRUD operations on the clients table. All operations
// are scoped to the owning user.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Client, error)
	List(ctx context.Context, userID uuid.UUID, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, userID, id uuid.UUID, fields UpdateFields) (*Client, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
