package validation

import "strings"

// CreateClientRequest mirrors the fields needed for create client validation.
type CreateClientRequest struct {
	Name               string
	Email              string
	OutstandingBalance *float64
}

// ValidateCreateClientRequest validates the fields of a create client request.
func ValidateCreateClientRequest(req CreateClientRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	errs = append(errs, validateOptionalClientFields(req.Email, req.OutstandingBalance)...)
	return errs
}

// UpdateClientRequest mirrors the fields needed for update client validation.
// Nil fields are absent from the request.
type UpdateClientRequest struct {
	Name               *string
	Email              *string
	OutstandingBalance *float64
}

// ValidateUpdateClientRequest validates the fields of an update client request.
func ValidateUpdateClientRequest(req UpdateClientRequest) []FieldError {
	var errs []FieldError

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			errs = append(errs, FieldError{Field: "name", Message: "name must not be empty"})
		} else if len(name) > 255 {
			errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
		}
	}

	var email string
	if req.Email != nil {
		email = *req.Email
	}
	errs = append(errs, validateOptionalClientFields(email, req.OutstandingBalance)...)
	return errs
}

func validateOptionalClientFields(email string, balance *float64) []FieldError {
	var errs []FieldError

	if email != "" && !validEmail(email) {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}
	if balance != nil && *balance < 0 {
		errs = append(errs, FieldError{Field: "outstandingBalance", Message: "outstandingBalance must not be negative"})
	}

	return errs
}

// ExportFormats is the set of accepted client export formats.
var ExportFormats = map[string]bool{
	"csv":   true,
	"json":  true,
	"excel": true,
}

// ValidateExportFormat validates the format query parameter of an export
// request.
func ValidateExportFormat(format string) []FieldError {
	if !ExportFormats[format] {
		return []FieldError{{Field: "format", Message: "format must be \"csv\", \"json\" or \"excel\""}}
	}
	return nil
}
