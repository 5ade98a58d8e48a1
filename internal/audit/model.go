package audit

import (
	"time"

	"github.com/google/uuid"
)

// Effort represents a row in the collection_efforts table: one completed
// outbound action against a vendor on behalf of a client. Rows are
// append-only and never mutated.
type Effort struct {
	ID        uuid.UUID
	ClientID  *uuid.UUID
	UserID    *uuid.UUID
	Vendor    string
	Action    string
	Detail    string
	CreatedAt time.Time
}
