package ports

import (
	"context"
	"time"

	"github.com/medrail/casebook/internal/domain/model"
)

type (
	// PendingMismatch records a mismatch report that was surfaced to a
	// session and is awaiting acknowledgement or the auto-logout timeout.
	PendingMismatch struct {
		SessionID  string    `json:"session_id"`
		Signature  string    `json:"signature"`
		ReportedAt time.Time `json:"reported_at"`
	}

	// SessionStore holds per-session reconciliation state: the versions the
	// session has seen, its last check time, and any pending or
	// acknowledged mismatch signature. Entries carry a bounded TTL and are
	// wiped wholesale on forced logout.
	SessionStore interface {
		StoredVersions(ctx context.Context, sessionID string) (model.StoredVersions, error)
		SaveStoredVersions(ctx context.Context, sessionID string, versions model.StoredVersions) error

		LastCheck(ctx context.Context, sessionID string) (time.Time, bool, error)
		SetLastCheck(ctx context.Context, sessionID string, at time.Time) error

		PendingMismatch(ctx context.Context, sessionID string) (*PendingMismatch, error)
		SetPendingMismatch(ctx context.Context, pending PendingMismatch) error
		ClearPendingMismatch(ctx context.Context, sessionID string) error
		ListPendingMismatches(ctx context.Context) ([]PendingMismatch, error)

		AcknowledgedSignature(ctx context.Context, sessionID string) (string, error)
		SetAcknowledgedSignature(ctx context.Context, sessionID, signature string) error

		// Clear removes every key owned by the session.
		Clear(ctx context.Context, sessionID string) error

		IsHealthy(ctx context.Context) bool
	}
)
