package queue

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("queue: group call not found")
	ErrInvalidArgument = errors.New("queue: invalid argument")

	// ErrInvalidTransition is state machine misuse (e.g. starting a
	// completed queue). Surfaced to the caller, never retried.
	ErrInvalidTransition = errors.New("queue: invalid status transition")

	// ErrNotActive means the cursor cannot advance because the queue is
	// not in_progress. Callers must not retry blindly.
	ErrNotActive = errors.New("queue: group call not active")

	// ErrExhaustedQueue means the cursor is at or past the end of the
	// lead snapshot.
	ErrExhaustedQueue = errors.New("queue: no leads remaining")

	// ErrEmptyGroup rejects group-call creation for a group with no leads.
	ErrEmptyGroup = errors.New("queue: group has no leads")
)

// UpdateFunc mutates a group call in place. Returning an error aborts the
// update and nothing is persisted.
type UpdateFunc func(gc *GroupCall) error

// Repository is the persistence contract for group calls.
//
// Update must be an atomic read-modify-write per group call: the loaded
// state, the mutation and the write happen under one record-level lock.
// Combined with the dispatcher's per-group-call serialization this keeps
// cursor movement strictly ordered.
type Repository interface {
	Create(ctx context.Context, gc GroupCall) (GroupCall, error)
	Get(ctx context.Context, id string) (GroupCall, error)
	GetForUser(ctx context.Context, userID, id string) (GroupCall, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (GroupCall, error)
	List(ctx context.Context, userID string, f ListFilter) ([]GroupCall, error)
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}
