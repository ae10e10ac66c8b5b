package callrecords

import "time"

// Status is the delivery state of a single dial attempt.
//
// Statuses only move forward:
//
//	initiated -> ringing -> answered -> {completed, failed, busy, no-answer}
//
// intermediate steps may be skipped (a provider can report completed
// directly from initiated), but a status never regresses and a terminal
// status never changes.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusRinging   Status = "ringing"
	StatusAnswered  Status = "answered"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusBusy      Status = "busy"
	StatusNoAnswer  Status = "no-answer"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInitiated, StatusRinging, StatusAnswered,
		StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer:
		return true
	default:
		return false
	}
}

func (s Status) rank() int {
	switch s {
	case StatusInitiated:
		return 0
	case StatusRinging:
		return 1
	case StatusAnswered:
		return 2
	case StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer:
		return 3
	default:
		return -1
	}
}

// CanTransition reports whether moving from -> to respects the forward-only
// ordering. Self-transitions and regressions are rejected.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	return to.rank() > from.rank()
}

// Outcome is the business classification of a finished attempt.
// Delivery-derived outcomes come from OutcomeForStatus; richer outcomes
// (meeting scheduled, rejected) are set by a separate annotation path.
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeFailed           Outcome = "failed"
	OutcomeBusy             Outcome = "busy"
	OutcomeNoAnswer         Outcome = "no-answer"
	OutcomeMeetingScheduled Outcome = "meeting_scheduled"
	OutcomeRejected         Outcome = "rejected"
)

// OutcomeForStatus maps a terminal delivery status to its default outcome.
func OutcomeForStatus(s Status) (Outcome, bool) {
	switch s {
	case StatusCompleted:
		return OutcomeCompleted, true
	case StatusFailed:
		return OutcomeFailed, true
	case StatusBusy:
		return OutcomeBusy, true
	case StatusNoAnswer:
		return OutcomeNoAnswer, true
	default:
		return "", false
	}
}

// Purpose describes why a call is being made. Copied from the owning
// group call onto each record, or supplied directly for standalone calls.
type Purpose string

const (
	PurposeGeneral  Purpose = "general"
	PurposeFeedback Purpose = "feedback"
	PurposeUpsell   Purpose = "upsell"
	PurposeCustom   Purpose = "custom"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeGeneral, PurposeFeedback, PurposeUpsell, PurposeCustom:
		return true
	default:
		return false
	}
}

// Record is one placed-or-attempted call. One row per dial attempt;
// never deleted.
type Record struct {
	ID string `json:"id" db:"id"`

	// ProviderCallID is empty until the provider accepts the placement.
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	LeadID string `json:"lead_id" db:"lead_id"`
	UserID string `json:"user_id" db:"user_id"`

	// GroupCallID is empty for standalone calls.
	GroupCallID string `json:"group_call_id,omitempty" db:"group_call_id"`

	PhoneNumber string `json:"phone_number" db:"phone_number"`

	Status  Status  `json:"status" db:"status"`
	Outcome Outcome `json:"outcome,omitempty" db:"outcome"`

	// DurationSeconds is provider-reported; set only on a terminal status.
	DurationSeconds int `json:"duration" db:"duration"`

	Purpose         Purpose `json:"purpose" db:"purpose"`
	CustomPrompt    string  `json:"custom_prompt,omitempty" db:"custom_prompt"`
	AdditionalNotes string  `json:"additional_notes,omitempty" db:"additional_notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
