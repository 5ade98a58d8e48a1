package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// LookupMapping returns the client id mapped to an external platform id.
func (r *PostgresRepository) LookupMapping(ctx context.Context, userID uuid.UUID, platform, externalID string) (uuid.UUID, error) {
	query := `
		SELECT client_id
		FROM platform_client_mapping
		WHERE user_id = $1 AND platform = $2 AND external_id = $3`

	var clientID uuid.UUID
	err := r.pool.QueryRow(ctx, query, userID, platform, externalID).Scan(&clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrMappingNotFound
		}
		return uuid.Nil, fmt.Errorf("looking up platform mapping: %w", err)
	}
	return clientID, nil
}

// CreateMapping records the link between an external platform id and a
// local client.
func (r *PostgresRepository) CreateMapping(ctx context.Context, userID uuid.UUID, platform, externalID string, clientID uuid.UUID) error {
	query := `
		INSERT INTO platform_client_mapping (user_id, platform, external_id, client_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, platform, external_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, userID, platform, externalID, clientID); err != nil {
		return fmt.Errorf("creating platform mapping: %w", err)
	}
	return nil
}

// RecordTransaction inserts one imported transaction and reports whether
// the row was new.
func (r *PostgresRepository) RecordTransaction(ctx context.Context, row *ImportedTransaction) (bool, error) {
	query := `
		INSERT INTO lawpay_transaction_import (user_id, external_id, client_external_id, amount, status, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, external_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		row.UserID, row.ExternalID, row.ClientExternalID, row.Amount, row.Status, row.OccurredAt)
	if err != nil {
		return false, fmt.Errorf("recording imported transaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
