package callrecords

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("callrecords: not found")
	ErrInvalidArgument = errors.New("callrecords: invalid argument")

	// ErrAlreadyTerminal marks a duplicate provider delivery: the record
	// already reached a terminal status and the event must be ignored.
	ErrAlreadyTerminal = errors.New("callrecords: record already terminal")

	// ErrStatusRegression marks an out-of-order provider event that would
	// move the status backwards; it is rejected, not applied.
	ErrStatusRegression = errors.New("callrecords: status regression rejected")
)

// TransitionRequest applies a provider-reported status to a record.
type TransitionRequest struct {
	To Status

	// DurationSeconds is applied only when To is terminal and the value
	// is non-nil (the provider omits duration on non-final callbacks).
	DurationSeconds *int
}

// Repository is the persistence contract for call records.
//
// Implementations must make Transition an atomic read-modify-write:
// the forward-only check and the write happen under the same record lock
// so concurrent webhook deliveries cannot both pass the terminal check.
type Repository interface {
	Create(ctx context.Context, rec Record) (Record, error)

	// AttachProviderCallID stores the provider-assigned id once placement
	// succeeds. It is set exactly once.
	AttachProviderCallID(ctx context.Context, id, providerCallID string) error

	Get(ctx context.Context, id string) (Record, error)
	GetByProviderCallID(ctx context.Context, providerCallID string) (Record, error)

	// Transition moves the record's status forward. On a terminal target it
	// records duration (when present) and the delivery-derived outcome.
	// Returns ErrAlreadyTerminal for duplicate terminal deliveries and
	// ErrStatusRegression for out-of-order events.
	Transition(ctx context.Context, id string, req TransitionRequest) (Record, error)

	List(ctx context.Context, userID string, f ListFilter) ([]Record, error)
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	GroupCallID string
	LeadID      string
	Limit       int
	Offset      int
}
