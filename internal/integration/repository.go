package integration

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrIntegrationNotFound is returned when a user has no row for a vendor.
var ErrIntegrationNotFound = errors.New("integration not found")

// Repository provides operations on the user_integrations table.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]UserIntegration, error)
	Get(ctx context.Context, userID uuid.UUID, vendor string) (*UserIntegration, error)
	Upsert(ctx context.Context, row *UserIntegration) error
	TouchLastSynced(ctx context.Context, userID uuid.UUID, vendor string) error
	Delete(ctx context.Context, userID uuid.UUID, vendor string) error
}
