package queue

import (
	"context"
	"errors"

	"outdial/internal/callrecords"
	"outdial/internal/leads"

	"github.com/google/uuid"
)

// Service owns GroupCall lifecycle transitions. It is the only component
// permitted to mutate Status and CurrentLeadIndex; the dispatcher drives
// it but never writes queue state directly.
type Service struct {
	repo  Repository
	store leads.Store
}

func NewService(repo Repository, store leads.Store) *Service {
	return &Service{repo: repo, store: store}
}

// CreateRequest describes a new group call.
type CreateRequest struct {
	GroupID         string              `json:"group_id"`
	Purpose         callrecords.Purpose `json:"purpose"`
	CustomPrompt    string              `json:"custom_prompt,omitempty"`
	AdditionalNotes string              `json:"additional_notes,omitempty"`
}

// Create snapshots the group's membership and stores a queued group call.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (GroupCall, error) {
	if userID == "" || req.GroupID == "" {
		return GroupCall{}, ErrInvalidArgument
	}
	if req.Purpose == "" {
		req.Purpose = callrecords.PurposeGeneral
	}
	if !req.Purpose.Valid() {
		return GroupCall{}, ErrInvalidArgument
	}

	snapshot, err := s.store.GetGroupLeadsSnapshot(ctx, userID, req.GroupID)
	if err != nil {
		return GroupCall{}, err
	}
	if len(snapshot) == 0 {
		return GroupCall{}, ErrEmptyGroup
	}

	gc := GroupCall{
		ID:              uuid.NewString(),
		UserID:          userID,
		GroupID:         req.GroupID,
		Status:          StatusQueued,
		Purpose:         req.Purpose,
		CustomPrompt:    req.CustomPrompt,
		AdditionalNotes: req.AdditionalNotes,
		TotalLeads:      len(snapshot),
		Leads:           snapshot,
	}
	return s.repo.Create(ctx, gc)
}

func (s *Service) Get(ctx context.Context, userID, id string) (GroupCall, error) {
	return s.repo.GetForUser(ctx, userID, id)
}

// GetByID skips user scoping. For internal callers (dispatcher) that have
// already authorized the operation or act on provider events.
func (s *Service) GetByID(ctx context.Context, id string) (GroupCall, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]GroupCall, error) {
	return s.repo.List(ctx, userID, f)
}

// Start moves queued -> in_progress.
func (s *Service) Start(ctx context.Context, id string) (GroupCall, error) {
	return s.repo.Update(ctx, id, func(gc *GroupCall) error {
		if gc.Status != StatusQueued {
			return ErrInvalidTransition
		}
		gc.Status = StatusInProgress
		return nil
	})
}

// Pause moves queued/in_progress -> paused. It does not abort an in-flight
// call; it only stops further placements.
func (s *Service) Pause(ctx context.Context, id string) (GroupCall, error) {
	return s.repo.Update(ctx, id, func(gc *GroupCall) error {
		if gc.Status != StatusQueued && gc.Status != StatusInProgress {
			return ErrInvalidTransition
		}
		gc.Status = StatusPaused
		return nil
	})
}

// Resume moves paused -> in_progress.
func (s *Service) Resume(ctx context.Context, id string) (GroupCall, error) {
	return s.repo.Update(ctx, id, func(gc *GroupCall) error {
		if gc.Status != StatusPaused {
			return ErrInvalidTransition
		}
		gc.Status = StatusInProgress
		return nil
	})
}

// AdvanceCursor moves the cursor one position forward and reports the new
// index and whether the queue just completed. It requires in_progress;
// advancing a paused or completed queue returns ErrNotActive.
func (s *Service) AdvanceCursor(ctx context.Context, id string) (newIndex int, completed bool, err error) {
	gc, err := s.repo.Update(ctx, id, func(gc *GroupCall) error {
		if gc.Status != StatusInProgress {
			return ErrNotActive
		}
		gc.CurrentLeadIndex++
		gc.CompletedCalls++
		if gc.CurrentLeadIndex >= gc.TotalLeads {
			gc.CurrentLeadIndex = gc.TotalLeads
			gc.Status = StatusCompleted
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return gc.CurrentLeadIndex, gc.Status == StatusCompleted, nil
}

// RecordTerminalWhilePaused counts a terminal attempt and moves the cursor
// without requiring in_progress. Used when an in-flight call finishes after
// the operator paused the queue: the record still closes out and the cursor
// still advances, but no new call is placed.
func (s *Service) RecordTerminalWhilePaused(ctx context.Context, id string) (GroupCall, error) {
	return s.repo.Update(ctx, id, func(gc *GroupCall) error {
		if gc.Status != StatusPaused {
			return ErrNotActive
		}
		gc.CompletedCalls++
		if gc.CurrentLeadIndex < gc.TotalLeads {
			gc.CurrentLeadIndex++
		}
		// Keep the completed <=> cursor-at-end invariant even when the
		// final attempt finishes under a paused queue.
		if gc.CurrentLeadIndex >= gc.TotalLeads {
			gc.Status = StatusCompleted
		}
		return nil
	})
}

// CurrentLead returns the lead at the cursor in the creation-time snapshot.
func (s *Service) CurrentLead(ctx context.Context, id string) (leads.QueueLead, error) {
	gc, err := s.repo.Get(ctx, id)
	if err != nil {
		return leads.QueueLead{}, err
	}
	if gc.CurrentLeadIndex >= gc.TotalLeads || gc.CurrentLeadIndex >= len(gc.Leads) {
		return leads.QueueLead{}, ErrExhaustedQueue
	}
	return gc.Leads[gc.CurrentLeadIndex], nil
}

// QueueStatus returns the operator-facing progress view.
func (s *Service) QueueStatus(ctx context.Context, userID, id string) (QueueStatus, error) {
	gc, err := s.repo.GetForUser(ctx, userID, id)
	if err != nil {
		return QueueStatus{}, err
	}
	return gc.queueStatus(), nil
}

// IsNotFound reports whether err is a missing group call from either the
// queue repo or the lead store.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, leads.ErrNotFound)
}
