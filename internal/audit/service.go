package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.UserID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogQueueAction records an operator action against a group call queue.
func (s *Service) LogQueueAction(ctx context.Context, userID string, t EventType, groupCallID, message string) error {
	return s.Append(ctx, Event{
		UserID:      userID,
		Type:        t,
		GroupCallID: groupCallID,
		Message:     message,
	})
}

// LogCallPlaced records a placement attempt tied to a call record.
func (s *Service) LogCallPlaced(ctx context.Context, userID, groupCallID, callRecordID, leadID string) error {
	return s.Append(ctx, Event{
		UserID:       userID,
		Type:         EventTypeCallPlaced,
		GroupCallID:  groupCallID,
		CallRecordID: callRecordID,
		LeadID:       leadID,
	})
}
