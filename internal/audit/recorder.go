// Package audit records completed outbound vendor actions as append-only
// collection_efforts rows.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Recorder performs best-effort audit writes. A failed insert is logged and
// never propagated: a vendor action that already succeeded must not be
// reported as failed because its audit row could not be written. Whether
// audit completeness should instead be a hard guarantee is an open product
// decision; until then the write failure rate is observable through logs.
type Recorder struct {
	repo    Repository
	timeout time.Duration
}

// NewRecorder creates a Recorder with the given write timeout.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, timeout: 5 * time.Second}
}

// Record appends one audit row, detached from the caller's context so that
// a cancelled request cannot abort the write mid-flight.
func (r *Recorder) Record(e Effort) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.Append(ctx, &e); err != nil {
		slog.Error("audit write failed",
			"vendor", e.Vendor,
			"action", e.Action,
			"clientId", e.ClientID,
			"error", err,
		)
	}
}
