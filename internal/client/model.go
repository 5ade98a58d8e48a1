package client

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a row in the clients table: one law-firm client owned
// by a user.
type Client struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	Name               string
	Email              string
	Phone              string
	Source             string // "manual" or an import source such as "lawpay"
	ExternalID         *string
	OutstandingBalance float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ListFilter holds optional filters and pagination for listing clients.
type ListFilter struct {
	Name  *string // partial match (ILIKE)
	Page  int     // default 1
	Limit int     // default 20
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Clients []Client
	Total   int
	Page    int
	Limit   int
}

// UpdateFields holds user-updatable fields on a client record.
// Nil fields are not updated.
type UpdateFields struct {
	Name               *string
	Email              *string
	Phone              *string
	OutstandingBalance *float64
}
