package leads

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_DuplicatePhoneRejected(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.AddLead(Lead{UserID: "user-1", Name: "A", Phone: "+15550000001"}); err != nil {
		t.Fatalf("add lead: %v", err)
	}
	if _, err := store.AddLead(Lead{UserID: "user-1", Name: "B", Phone: "+15550000001"}); !errors.Is(err, ErrDuplicatePhone) {
		t.Fatalf("expected ErrDuplicatePhone, got %v", err)
	}
	// Same phone under a different user is fine.
	if _, err := store.AddLead(Lead{UserID: "user-2", Name: "C", Phone: "+15550000001"}); err != nil {
		t.Fatalf("other user add: %v", err)
	}
}

func TestMemoryStore_SnapshotPreservesOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a, _ := store.AddLead(Lead{UserID: "user-1", Name: "A", Phone: "+15550000001"})
	b, _ := store.AddLead(Lead{UserID: "user-1", Name: "B", Phone: "+15550000002"})
	c, _ := store.AddLead(Lead{UserID: "user-1", Name: "C", Phone: "+15550000003"})
	g := store.AddGroup(Group{UserID: "user-1", Name: "g"}, []string{c.ID, a.ID, b.ID})

	snap, err := store.GetGroupLeadsSnapshot(ctx, "user-1", g.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != 3 || snap[0].LeadID != c.ID || snap[1].LeadID != a.ID || snap[2].LeadID != b.ID {
		t.Fatalf("membership order not preserved: %+v", snap)
	}

	if _, err := store.GetGroupLeadsSnapshot(ctx, "user-2", g.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign user should get ErrNotFound, got %v", err)
	}
}
