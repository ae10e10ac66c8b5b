package leads

import "time"

// Lead is a prospective contact owned by a user.
//
// Invariant: Phone is unique per owning user (enforced by the store;
// in Postgres via a composite unique constraint on (user_id, phone)).
type Lead struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Name    string `json:"name" db:"name"`
	Phone   string `json:"phone" db:"phone"`
	Email   string `json:"email,omitempty" db:"email"`
	Company string `json:"company,omitempty" db:"company"`
	Notes   string `json:"notes,omitempty" db:"notes"`

	// Priority is a 1-5 scale used only for display ordering.
	Priority int `json:"priority" db:"priority"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Group is a named collection of leads owned by a user.
// Membership is many-to-many via the lead_groups join table.
type Group struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// QueueLead is the minimal lead view a group-call queue snapshots at
// creation time. The queue dials from this snapshot, so later membership
// edits cannot perturb an in-flight run.
type QueueLead struct {
	LeadID      string `json:"lead_id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}
