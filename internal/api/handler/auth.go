package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexrelay/lexrelay/internal/api/middleware"
	"github.com/lexrelay/lexrelay/internal/api/response"
	"github.com/lexrelay/lexrelay/internal/api/validation"
	"github.com/lexrelay/lexrelay/internal/apperr"
	"github.com/lexrelay/lexrelay/internal/auth"
)

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type updateProfileRequest struct {
	CompanyName string `json:"companyName"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func toSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
		User: userResponse{
			ID:          s.User.UserID.String(),
			Email:       s.User.Email,
			CompanyName: s.User.CompanyName,
		},
	}
}

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateSignUpRequest(validation.SignUpRequest{
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	session, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.CompanyName)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "An account with this email already exists", requestID)
			return
		}
		slog.Error("failed to sign up", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toSessionResponse(session), requestID)
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateSignInRequest(validation.SignInRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", requestID)
			return
		}
		slog.Error("failed to sign in", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in", requestID)
		return
	}

	response.Success(w, http.StatusOK, toSessionResponse(session), requestID)
}

// SignOut handles POST /auth/signout. It invalidates every outstanding
// session token for the user.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	if err := h.service.SignOut(r.Context(), identity.UserID); err != nil {
		slog.Error("failed to sign out", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign out", requestID)
		return
	}

	response.NoContent(w)
}

// RequestReset handles POST /auth/reset. The response is identical whether
// or not the email is known, so the endpoint cannot be used to probe for
// accounts. The reset token is delivered out of band.
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}
	if req.Email == "" {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "email", Message: "email is required"}}, requestID)
		return
	}

	if _, err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		slog.Error("failed to create reset token", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process reset request", requestID)
		return
	}

	response.Success(w, http.StatusOK, map[string]string{
		"message": "If the email exists, a reset link has been sent",
	}, requestID)
}

// ConfirmReset handles POST /auth/reset/confirm.
func (h *AuthHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req resetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateResetPasswordRequest(validation.ResetPasswordRequest{
		Email:       req.Email,
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidResetToken) {
			response.Err(w, http.StatusUnauthorized, "INVALID_RESET_TOKEN", "Invalid or expired reset token", requestID)
			return
		}
		slog.Error("failed to reset password", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reset password", requestID)
		return
	}

	response.NoContent(w)
}

// UpdatePassword handles PUT /auth/password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdatePasswordRequest(validation.UpdatePasswordRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			response.Err(w, http.StatusBadRequest, "INVALID_PASSWORD", apperr.Normalize(err).Message, requestID)
			return
		}
		slog.Error("failed to update password", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update password", requestID)
		return
	}

	response.NoContent(w)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	response.Success(w, http.StatusOK, userResponse{
		ID:          identity.UserID.String(),
		Email:       identity.Email,
		CompanyName: identity.CompanyName,
	}, requestID)
}

// UpdateProfile handles PATCH /auth/me.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if err := h.service.UpdateUser(r.Context(), identity.UserID, req.CompanyName); err != nil {
		slog.Error("failed to update profile", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile", requestID)
		return
	}

	response.NoContent(w)
}
