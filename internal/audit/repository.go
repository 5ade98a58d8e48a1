package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides append and read operations on the collection_efforts
// table.
type Repository interface {
	Append(ctx context.Context, e *Effort) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]Effort, error)
}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Append inserts one audit row.
func (r *PostgresRepository) Append(ctx context.Context, e *Effort) error {
	query := `
		INSERT INTO collection_efforts (client_id, user_id, vendor, action, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, e.ClientID, e.UserID, e.Vendor, e.Action, e.Detail).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting audit row: %w", err)
	}

	return nil
}

// ListByClient retrieves the most recent audit rows for a client.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]Effort, error) {
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT id, client_id, user_id, vendor, action, detail, created_at
		FROM collection_efforts
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit rows: %w", err)
	}
	defer rows.Close()

	efforts := []Effort{}
	for rows.Next() {
		var e Effort
		err := rows.Scan(&e.ID, &e.ClientID, &e.UserID, &e.Vendor, &e.Action, &e.Detail, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		efforts = append(efforts, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return efforts, nil
}
