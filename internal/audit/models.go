package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - Recording is best-effort; do not block call processing on audit failures.
//
// Storage recommendation (Postgres): INSERT-only audit_events table, optional
// trigger to prevent UPDATE/DELETE, partition by time for retention.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// CallID ties the event to a call where applicable.
	CallID string `json:"call_id,omitempty" db:"call_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeTaxonomyMismatch records a disagreement between the classifier
	// label and the dispatcher's substring category for the same call. The
	// two layers are deliberately not kept in lock-step; mismatches are
	// monitored here instead of being silently resolved.
	EventTypeTaxonomyMismatch EventType = "taxonomy_mismatch"

	// EventTypeAdminAction records usage of admin-only surfaces such as the
	// call simulation endpoint.
	EventTypeAdminAction EventType = "admin_action"
)
