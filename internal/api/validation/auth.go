package validation

import "strings"

const minPasswordLength = 8

// SignUpRequest mirrors the fields needed for sign-up validation.
type SignUpRequest struct {
	Email       string
	Password    string
	CompanyName string
}

// ValidateSignUpRequest validates the fields of a sign-up request.
func ValidateSignUpRequest(req SignUpRequest) []FieldError {
	var errs []FieldError

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if !validEmail(email) {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	} else if len(req.Password) < minPasswordLength {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	if len(req.CompanyName) > 255 {
		errs = append(errs, FieldError{Field: "companyName", Message: "companyName must be at most 255 characters"})
	}

	return errs
}

// SignInRequest mirrors the fields needed for sign-in validation.
type SignInRequest struct {
	Email    string
	Password string
}

// ValidateSignInRequest validates the fields of a sign-in request.
func ValidateSignInRequest(req SignInRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return errs
}

// UpdatePasswordRequest mirrors the fields needed for password change
// validation.
type UpdatePasswordRequest struct {
	CurrentPassword string
	NewPassword     string
}

// ValidateUpdatePasswordRequest validates the fields of a password change
// request.
func ValidateUpdatePasswordRequest(req UpdatePasswordRequest) []FieldError {
	var errs []FieldError

	if req.CurrentPassword == "" {
		errs = append(errs, FieldError{Field: "currentPassword", Message: "currentPassword is required"})
	}
	if req.NewPassword == "" {
		errs = append(errs, FieldError{Field: "newPassword", Message: "newPassword is required"})
	} else if len(req.NewPassword) < minPasswordLength {
		errs = append(errs, FieldError{Field: "newPassword", Message: "newPassword must be at least 8 characters"})
	}

	return errs
}

// ResetPasswordRequest mirrors the fields needed for reset confirmation
// validation.
type ResetPasswordRequest struct {
	Email       string
	Token       string
	NewPassword string
}

// ValidateResetPasswordRequest validates the fields of a reset confirmation
// request.
func ValidateResetPasswordRequest(req ResetPasswordRequest) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(req.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if req.Token == "" {
		errs = append(errs, FieldError{Field: "token", Message: "token is required"})
	}
	if req.NewPassword == "" {
		errs = append(errs, FieldError{Field: "newPassword", Message: "newPassword is required"})
	} else if len(req.NewPassword) < minPasswordLength {
		errs = append(errs, FieldError{Field: "newPassword", Message: "newPassword must be at least 8 characters"})
	}

	return errs
}
