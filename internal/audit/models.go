package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - user_id is required for per-operator isolation.
// - Audit capture is best-effort; do not block dialing flows on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// Target identifiers (optional, depending on the event type).
	GroupCallID  string `json:"group_call_id,omitempty" db:"group_call_id"`
	CallRecordID string `json:"call_record_id,omitempty" db:"call_record_id"`
	LeadID       string `json:"lead_id,omitempty" db:"lead_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeGroupCallCreated EventType = "group_call_created"
	EventTypeGroupCallStarted EventType = "group_call_started"
	EventTypeGroupCallPaused  EventType = "group_call_paused"
	EventTypeGroupCallResumed EventType = "group_call_resumed"
	EventTypeManualNext       EventType = "manual_next"
	EventTypeCallPlaced       EventType = "call_placed"
	EventTypeOrphanEvent      EventType = "orphan_event"
)
