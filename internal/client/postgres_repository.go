package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, user_id, name, email, phone, source, external_id,
	outstanding_balance, created_at, updated_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new client record.
func (r *PostgresRepository) Create(ctx context.Context, c *Client) error {
	query := `
		INSERT INTO clients (user_id, name, email, phone, source, external_id, outstanding_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		c.UserID, c.Name, c.Email, c.Phone, c.Source, c.ExternalID, c.OutstandingBalance,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting client: %w", err)
	}

	return nil
}

// GetByID retrieves a single client owned by the given user.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Client, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM clients
		WHERE id = $1 AND user_id = $2`, clientColumns)

	return r.scanOne(ctx, query, id, userID)
}

// List retrieves a page of clients owned by the given user.
func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	where := []string{"user_id = $1"}
	args := []any{userID}
	argIdx := 2

	if filter.Name != nil {
		where = append(where, fmt.Sprintf("name ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.Name+"%")
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM clients WHERE " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting clients: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM clients
		WHERE %s
		ORDER BY created_at ASC
		LIMIT $%d OFFSET $%d`, clientColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		var c Client
		if err := scanClient(rows, &c); err != nil {
			return nil, fmt.Errorf("scanning client row: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating client rows: %w", err)
	}

	return &ListResult{
		Clients: clients,
		Total:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}, nil
}

// Update applies the non-nil fields to a client record.
func (r *PostgresRepository) Update(ctx context.Context, userID, id uuid.UUID, fields UpdateFields) (*Client, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argIdx))
		args = append(args, *fields.Email)
		argIdx++
	}
	if fields.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", argIdx))
		args = append(args, *fields.Phone)
		argIdx++
	}
	if fields.OutstandingBalance != nil {
		setClauses = append(setClauses, fmt.Sprintf("outstanding_balance = $%d", argIdx))
		args = append(args, *fields.OutstandingBalance)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, userID, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id, userID)

	query := fmt.Sprintf(`
		UPDATE clients
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, clientColumns)

	return r.scanOne(ctx, query, args...)
}

// Delete removes a client owned by the given user.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrClientNotFound
	}

	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Client, error) {
	var c Client
	err := scanClient(r.pool.QueryRow(ctx, query, args...), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("querying client: %w", err)
	}
	return &c, nil
}

func scanClient(row pgx.Row, c *Client) error {
	return row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Source, &c.ExternalID,
		&c.OutstandingBalance, &c.CreatedAt, &c.UpdatedAt,
	)
}
