package queue

import (
	"time"

	"outdial/internal/callrecords"
	"outdial/internal/leads"
)

// Status is the lifecycle state of a group call queue.
//
// State machine:
//
//	queued -> in_progress (start)
//	queued -> paused (pause)
//	in_progress -> paused (pause)
//	paused -> in_progress (resume)
//	in_progress -> completed (cursor reaches end)
//
// completed is terminal; no transition leaves it.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusPaused, StatusCompleted:
		return true
	default:
		return false
	}
}

// GroupCall is one traversal of one group's leads.
//
// Invariants:
//   - 0 <= CurrentLeadIndex <= TotalLeads
//   - Status == completed iff CurrentLeadIndex == TotalLeads
//   - at most one non-terminal call record exists per group call
//     (enforced by the dispatcher's advancement protocol)
//
// The Leads snapshot is fixed at creation; group membership edits after
// that point do not change what a running queue dials.
type GroupCall struct {
	ID      string `json:"id" db:"id"`
	UserID  string `json:"user_id" db:"user_id"`
	GroupID string `json:"group_id" db:"group_id"`

	Status Status `json:"status" db:"status"`

	Purpose         callrecords.Purpose `json:"purpose" db:"purpose"`
	CustomPrompt    string              `json:"custom_prompt,omitempty" db:"custom_prompt"`
	AdditionalNotes string              `json:"additional_notes,omitempty" db:"additional_notes"`

	// CurrentLeadIndex is the cursor: the next snapshot position to dial.
	CurrentLeadIndex int `json:"current_lead_index" db:"current_lead_index"`
	TotalLeads       int `json:"total_leads" db:"total_leads"`

	// CompletedCalls counts attempts that reached a terminal status,
	// successful or not.
	CompletedCalls int `json:"completed_calls" db:"completed_calls"`

	Leads []leads.QueueLead `json:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// QueueStatus is the operator-facing progress view.
type QueueStatus struct {
	GroupCallID      string  `json:"group_call_id"`
	GroupID          string  `json:"group_id"`
	Status           Status  `json:"status"`
	CurrentLeadIndex int     `json:"current_lead_index"`
	TotalLeads       int     `json:"total_leads"`
	CompletedCalls   int     `json:"completed_calls"`
	Remaining        int     `json:"remaining"`
	ProgressPercent  float64 `json:"progress_percentage"`
}

func (gc GroupCall) queueStatus() QueueStatus {
	qs := QueueStatus{
		GroupCallID:      gc.ID,
		GroupID:          gc.GroupID,
		Status:           gc.Status,
		CurrentLeadIndex: gc.CurrentLeadIndex,
		TotalLeads:       gc.TotalLeads,
		CompletedCalls:   gc.CompletedCalls,
		Remaining:        gc.TotalLeads - gc.CurrentLeadIndex,
	}
	if gc.TotalLeads > 0 {
		qs.ProgressPercent = float64(gc.CurrentLeadIndex) / float64(gc.TotalLeads) * 100
	}
	return qs
}
