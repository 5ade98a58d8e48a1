package integration

import (
	"context"
	"encoding/json"
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

// ListByUser retrieves every integration row for a user.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserIntegration, error) {
	query := `
		SELECT id, user_id, vendor, config, status, last_synced_at, created_at, updated_at
		FROM user_integrations
		WHERE user_id = $1
		ORDER BY vendor ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing integrations: %w", err)
	}
	defer rows.Close()

	integrations := []UserIntegration{}
	for rows.Next() {
		var row UserIntegration
		if err := scanIntegration(rows, &row); err != nil {
			return nil, fmt.Errorf("scanning integration row: %w", err)
		}
		integrations = append(integrations, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating integration rows: %w", err)
	}

	return integrations, nil
}

// Get retrieves one integration row by user and vendor.
func (r *PostgresRepository) Get(ctx context.Context, userID uuid.UUID, vendor string) (*UserIntegration, error) {
	query := `
		SELECT id, user_id, vendor, config, status, last_synced_at, created_at, updated_at
		FROM user_integrations
		WHERE user_id = $1 AND vendor = $2`

	var row UserIntegration
	err := scanIntegration(r.pool.QueryRow(ctx, query, userID, vendor), &row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntegrationNotFound
		}
		return nil, fmt.Errorf("querying integration: %w", err)
	}

	return &row, nil
}

// Upsert inserts or replaces the (user, vendor) row.
func (r *PostgresRepository) Upsert(ctx context.Context, row *UserIntegration) error {
	cfg, err := json.Marshal(row.Config)
	if err != nil {
		return fmt.Errorf("encoding integration config: %w", err)
	}

	query := `
		INSERT INTO user_integrations (user_id, vendor, config, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, vendor) DO UPDATE
		SET config = EXCLUDED.config, status = EXCLUDED.status, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err = r.pool.QueryRow(ctx, query, row.UserID, row.Vendor, cfg, row.Status).
		Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting integration: %w", err)
	}

	return nil
}

// TouchLastSynced stamps last_synced_at with the current time.
func (r *PostgresRepository) TouchLastSynced(ctx context.Context, userID uuid.UUID, vendor string) error {
	query := `
		UPDATE user_integrations
		SET last_synced_at = NOW(), updated_at = NOW()
		WHERE user_id = $1 AND vendor = $2`

	result, err := r.pool.Exec(ctx, query, userID, vendor)
	if err != nil {
		return fmt.Errorf("stamping last sync: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrIntegrationNotFound
	}
	return nil
}

// Delete removes the (user, vendor) row.
func (r *PostgresRepository) Delete(ctx context.Context, userID uuid.UUID, vendor string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM user_integrations WHERE user_id = $1 AND vendor = $2`, userID, vendor)
	if err != nil {
		return fmt.Errorf("deleting integration: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrIntegrationNotFound
	}

	return nil
}

func scanIntegration(row pgx.Row, out *UserIntegration) error {
	var cfg []byte
	err := row.Scan(
		&out.ID, &out.UserID, &out.Vendor, &cfg, &out.Status,
		&out.LastSyncedAt, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &out.Config); err != nil {
			return fmt.Errorf("decoding integration config: %w", err)
		}
	}
	if out.Config == nil {
		out.Config = map[string]any{}
	}
	return nil
}
