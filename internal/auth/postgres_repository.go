package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements UserRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new UserRepository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) UserRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new user record.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (email, password_hash, company_name)
		VALUES ($1, $2, $3)
		RETURNING id, token_version, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, u.Email, u.PasswordHash, u.CompanyName).
		Scan(&u.ID, &u.TokenVersion, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a single user by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a single user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	query := `
		SELECT id, email, password_hash, company_name, token_version,
		       reset_token, reset_expires_at, created_at, updated_at
		FROM users
		WHERE ` + where

	var u User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CompanyName, &u.TokenVersion,
		&u.ResetToken, &u.ResetExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return &u, nil
}

// UpdatePassword replaces the stored password hash and clears any pending
// reset token.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_expires_at = NULL, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateMetadata updates the user's profile metadata.
func (r *PostgresRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, companyName string) error {
	query := `
		UPDATE users
		SET company_name = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, companyName)
	if err != nil {
		return fmt.Errorf("updating user metadata: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetResetToken stores a password reset token with its expiry.
func (r *PostgresRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_expires_at = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, token, expiresAt)
	if err != nil {
		return fmt.Errorf("setting reset token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearResetToken removes any pending reset token.
func (r *PostgresRepository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET reset_token = NULL, reset_expires_at = NULL, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("clearing reset token: %w", err)
	}
	return nil
}

// BumpTokenVersion invalidates all outstanding sessions for a user.
func (r *PostgresRepository) BumpTokenVersion(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("bumping token version: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
