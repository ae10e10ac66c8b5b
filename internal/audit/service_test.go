package audit

import (
	"context"
	"errors"
	"testing"
)

func TestService_Append_FillsDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	err := svc.LogQueueAction(context.Background(), "user-1", EventTypeGroupCallStarted, "gc-1", "started")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	events := repo.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("defaults not filled: %+v", e)
	}
	if e.Type != EventTypeGroupCallStarted || e.GroupCallID != "gc-1" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestService_Append_RejectsInvalid(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{Type: EventTypeCallPlaced}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("missing user: got %v", err)
	}
	if err := svc.Append(context.Background(), Event{UserID: "user-1"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("missing type: got %v", err)
	}
}
