package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when a user with the same email already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository provides operations on the users table.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, companyName string) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	BumpTokenVersion(ctx context.Context, id uuid.UUID) error
}
