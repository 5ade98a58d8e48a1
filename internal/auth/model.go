package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents a row in the users table.
type User struct {
	ID             uuid.UUID
	Email          string
	PasswordHash   string
	CompanyName    string
	TokenVersion   int
	ResetToken     *string
	ResetExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	CompanyName string
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      Identity
}
