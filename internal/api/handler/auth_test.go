package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexrelay/lexrelay/internal/api/handler"
	"github.com/lexrelay/lexrelay/internal/api/middleware"
	"github.com/lexrelay/lexrelay/internal/auth"
)

type memUserRepo struct {
	users map[string]*auth.User // keyed by email
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*auth.User)}
}

func (m *memUserRepo) Create(_ context.Context, u *auth.User) error {
	if _, ok := m.users[u.Email]; ok {
		return auth.ErrDuplicateEmail
	}
	u.ID = uuid.New()
	m.users[u.Email] = u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, auth.ErrUserNotFound
}

func (m *memUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, err := m.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUserRepo) UpdateMetadata(_ context.Context, id uuid.UUID, companyName string) error {
	u, err := m.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.CompanyName = companyName
	return nil
}

func (m *memUserRepo) SetResetToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	u, err := m.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.ResetToken = &token
	u.ResetExpiresAt = &expiresAt
	return nil
}

func (m *memUserRepo) ClearResetToken(_ context.Context, id uuid.UUID) error {
	u, err := m.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.ResetToken = nil
	u.ResetExpiresAt = nil
	return nil
}

func (m *memUserRepo) BumpTokenVersion(_ context.Context, id uuid.UUID) error {
	u, err := m.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.TokenVersion++
	return nil
}

func newAuthHandler() (*handler.AuthHandler, *auth.Service) {
	service := auth.NewService(newMemUserRepo(), "test-secret", time.Hour, 4)
	return handler.NewAuthHandler(service), service
}

func postJSON(t *testing.T, fn http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	fn(w, r)
	return w
}

func TestAuthSignUp(t *testing.T) {
	t.Parallel()

	h, _ := newAuthHandler()
	w := postJSON(t, h.SignUp, map[string]string{
		"email":       "ada@example.com",
		"password":    "correct-horse",
		"companyName": "Lovelace Law",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	data := envelopeData(t, w)
	assert.NotEmpty(t, data["token"])
	user := data["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, "Lovelace Law", user["companyName"])
}

func TestAuthSignUp_DuplicateEmail(t *testing.T) {
	t.Parallel()

	h, _ := newAuthHandler()
	body := map[string]string{"email": "ada@example.com", "password": "correct-horse"}

	require.Equal(t, http.StatusCreated, postJSON(t, h.SignUp, body).Code)
	w := postJSON(t, h.SignUp, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_EMAIL")
}

func TestAuthSignIn_WrongPassword(t *testing.T) {
	t.Parallel()

	h, _ := newAuthHandler()
	require.Equal(t, http.StatusCreated, postJSON(t, h.SignUp, map[string]string{
		"email": "ada@example.com", "password": "correct-horse",
	}).Code)

	w := postJSON(t, h.SignIn, map[string]string{
		"email": "ada@example.com", "password": "wrong-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthSignIn_EmailCaseInsensitive(t *testing.T) {
	t.Parallel()

	h, _ := newAuthHandler()
	require.Equal(t, http.StatusCreated, postJSON(t, h.SignUp, map[string]string{
		"email": "Ada@Example.com", "password": "correct-horse",
	}).Code)

	w := postJSON(t, h.SignIn, map[string]string{
		"email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequestReset_UnknownEmailStillSucceeds(t *testing.T) {
	t.Parallel()

	h, _ := newAuthHandler()
	w := postJSON(t, h.RequestReset, map[string]string{"email": "nobody@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "If the email exists")
}

func TestAuthUpdatePassword_WrongCurrent(t *testing.T) {
	t.Parallel()

	h, service := newAuthHandler()
	session, err := service.SignUp(context.Background(), "ada@example.com", "correct-horse", "")
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]string{
		"currentPassword": "wrong-horse",
		"newPassword":     "battery-staple",
	})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPut, "/auth/password", bytes.NewReader(raw))
	r = r.WithContext(middleware.WithIdentity(r.Context(), &session.User))
	w := httptest.NewRecorder()
	h.UpdatePassword(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "Current password is incorrect"))
}

func TestAuthMe(t *testing.T) {
	t.Parallel()

	h, _ := newAuthHandler()
	identity := &auth.Identity{UserID: uuid.New(), Email: "ada@example.com", CompanyName: "Lovelace Law"}

	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	r = r.WithContext(middleware.WithIdentity(r.Context(), identity))
	w := httptest.NewRecorder()
	h.Me(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	data := envelopeData(t, w)
	assert.Equal(t, "ada@example.com", data["email"])
	assert.Equal(t, "Lovelace Law", data["companyName"])
}
