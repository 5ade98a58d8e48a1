// Package validation holds per-endpoint request validation. Each endpoint
// has a request mirror struct and a Validate function returning field-level
// errors suitable for a 400 response body.
package validation

import "strings"

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validEmail is a deliberately loose shape check: one "@" with something on
// both sides and a dot in the domain. Deliverability is the mail system's
// problem, not ours.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
