// Package settings persists per-user application settings as a single
// JSONB document with upsert semantics.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings represents a row in the user_settings table.
type Settings struct {
	UserID    uuid.UUID
	Values    map[string]any
	UpdatedAt time.Time
}

// Repository provides operations on the user_settings table.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Settings, error)
	Upsert(ctx context.Context, userID uuid.UUID, values map[string]any) (*Settings, error)
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves the user's settings. A user without a settings row gets an
// empty document.
func (r *PostgresRepository) Get(ctx context.Context, userID uuid.UUID) (*Settings, error) {
	query := `
		SELECT user_id, settings, updated_at
		FROM user_settings
		WHERE user_id = $1`

	var s Settings
	var raw []byte
	err := r.pool.QueryRow(ctx, query, userID).Scan(&s.UserID, &raw, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Settings{UserID: userID, Values: map[string]any{}}, nil
		}
		return nil, fmt.Errorf("querying settings: %w", err)
	}

	if err := json.Unmarshal(raw, &s.Values); err != nil {
		return nil, fmt.Errorf("decoding settings document: %w", err)
	}

	return &s, nil
}

// Upsert replaces the user's settings document.
func (r *PostgresRepository) Upsert(ctx context.Context, userID uuid.UUID, values map[string]any) (*Settings, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encoding settings document: %w", err)
	}

	query := `
		INSERT INTO user_settings (user_id, settings, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET settings = EXCLUDED.settings, updated_at = NOW()
		RETURNING updated_at`

	s := &Settings{UserID: userID, Values: values}
	if err := r.pool.QueryRow(ctx, query, userID, raw).Scan(&s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upserting settings: %w", err)
	}

	return s, nil
}
