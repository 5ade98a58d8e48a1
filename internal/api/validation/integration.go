package validation

import (
	"fmt"
	"sort"
	"strings"
)

var knownVendors = map[string]bool{
	"docusign": true,
	"slack":    true,
	"trello":   true,
	"lawpay":   true,
}

// AddIntegrationRequest mirrors the fields needed for add integration
// validation.
type AddIntegrationRequest struct {
	Vendor string
}

// ValidateAddIntegrationRequest validates the fields of an add integration
// request.
func ValidateAddIntegrationRequest(req AddIntegrationRequest) []FieldError {
	var errs []FieldError

	vendor := strings.ToLower(strings.TrimSpace(req.Vendor))
	if vendor == "" {
		errs = append(errs, FieldError{Field: "vendor", Message: "vendor is required"})
	} else if !knownVendors[vendor] {
		errs = append(errs, FieldError{Field: "vendor", Message: fmt.Sprintf("vendor must be one of: %s", joinVendors())})
	}

	return errs
}

func joinVendors() string {
	names := make([]string, 0, len(knownVendors))
	for name := range knownVendors {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
