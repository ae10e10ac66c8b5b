package convo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"outdial/internal/callrecords"
	"outdial/internal/leads"
)

func TestGetCallContext(t *testing.T) {
	ctx := context.Background()
	store := leads.NewMemoryStore()
	lead, err := store.AddLead(leads.Lead{
		UserID:  "user-1",
		Name:    "Dana",
		Phone:   "+15550001111",
		Company: "Acme",
	})
	if err != nil {
		t.Fatalf("add lead: %v", err)
	}

	records := callrecords.NewMemoryRepo()
	rec, err := records.Create(ctx, callrecords.Record{
		LeadID:       lead.ID,
		UserID:       "user-1",
		PhoneNumber:  "+15550001111",
		Purpose:      callrecords.PurposeUpsell,
		CustomPrompt: "mention the Q3 discount",
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	if err := records.AttachProviderCallID(ctx, rec.ID, "CA1"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	svc := NewService(records, store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cc, err := svc.GetCallContext(ctx, "CA1")
	if err != nil {
		t.Fatalf("get call context: %v", err)
	}
	if cc.LeadName != "Dana" || cc.Company != "Acme" || cc.Purpose != callrecords.PurposeUpsell {
		t.Fatalf("unexpected context: %+v", cc)
	}
	if cc.CustomPrompt != "mention the Q3 discount" {
		t.Fatalf("prompt not carried: %+v", cc)
	}
}

func TestGetCallContext_UnknownCall(t *testing.T) {
	svc := NewService(callrecords.NewMemoryRepo(), leads.NewMemoryStore(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := svc.GetCallContext(context.Background(), "CA-unknown"); !errors.Is(err, callrecords.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetCallContext(context.Background(), ""); !errors.Is(err, callrecords.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
