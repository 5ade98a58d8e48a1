package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lexrelay/lexrelay/internal/apperr"
)

// ErrInvalidCredentials is returned when email/password verification fails.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidToken is returned when a session token fails verification.
var ErrInvalidToken = errors.New("invalid or expired session token")

// ErrInvalidResetToken is returned when a password reset token is unknown
// or expired.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

const resetTokenTTL = time.Hour

// Service provides the session/identity operations: sign-up, sign-in,
// password reset, profile update and sign-out.
type Service struct {
	userRepo   UserRepository
	jwtSecret  []byte
	sessionTTL time.Duration
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(userRepo UserRepository, jwtSecret string, sessionTTL time.Duration, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		bcryptCost: bcryptCost,
	}
}

type sessionClaims struct {
	Email        string `json:"email"`
	TokenVersion int    `json:"ver"`
	jwt.RegisteredClaims
}

// SignUp creates a user and returns a fresh session.
func (s *Service) SignUp(ctx context.Context, email, password, companyName string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Email:        email,
		PasswordHash: string(hash),
		CompanyName:  companyName,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueSession(user)
}

// SignIn verifies credentials and returns a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(user)
}

// SignOut invalidates every outstanding session for the user.
func (s *Service) SignOut(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.BumpTokenVersion(ctx, userID)
}

// Authenticate resolves a session token to an Identity.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolving session user: %w", err)
	}

	// Tokens minted before the last sign-out carry a stale version.
	if claims.TokenVersion != user.TokenVersion {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:      user.ID,
		Email:       user.Email,
		CompanyName: user.CompanyName,
	}, nil
}

// RequestPasswordReset generates a single-use reset token for the given
// email. The token is returned for delivery; an unknown email returns no
// error so the endpoint cannot be used to probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			slog.Info("password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	if err := s.userRepo.SetResetToken(ctx, user.ID, token, time.Now().UTC().Add(resetTokenTTL)); err != nil {
		return "", err
	}

	return token, nil
}

// ResetPassword completes a password reset: it verifies the token, stores
// the new hash and invalidates outstanding sessions.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	if user.ResetToken == nil || *user.ResetToken != token {
		return ErrInvalidResetToken
	}
	if user.ResetExpiresAt == nil || time.Now().UTC().After(*user.ResetExpiresAt) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	return s.userRepo.BumpTokenVersion(ctx, user.ID)
}

// UpdatePassword changes the password for an authenticated user after
// verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return apperr.New(apperr.KindValidation, "Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

// UpdateUser updates profile metadata for an authenticated user.
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, companyName string) error {
	return s.userRepo.UpdateMetadata(ctx, userID, companyName)
}

func (s *Service) issueSession(user *User) (*Session, error) {
	expiresAt := time.Now().UTC().Add(s.sessionTTL)

	claims := sessionClaims{
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User: Identity{
			UserID:      user.ID,
			Email:       user.Email,
			CompanyName: user.CompanyName,
		},
	}, nil
}
