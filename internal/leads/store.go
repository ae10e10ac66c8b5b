package leads

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("leads: not found")
	ErrDuplicatePhone = errors.New("leads: phone already exists for user")
)

// Store is the read contract the orchestration engine depends on.
// All reads are user-scoped; a group or lead belonging to another user
// is reported as ErrNotFound, never leaked.
type Store interface {
	// GetGroupLeadsSnapshot returns the group's membership as a stable
	// ordered sequence. Called once at group-call creation to fix the
	// queue's total and ordering.
	GetGroupLeadsSnapshot(ctx context.Context, userID, groupID string) ([]QueueLead, error)

	GetGroup(ctx context.Context, userID, groupID string) (Group, error)
	GetLead(ctx context.Context, userID, leadID string) (Lead, error)
}
