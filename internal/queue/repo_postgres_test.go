package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func groupCallRows(status Status, index, total int) *sqlmock.Rows {
	now := time.Unix(1700000000, 0).UTC()
	return sqlmock.NewRows([]string{
		"id", "user_id", "group_id", "status", "purpose",
		"custom_prompt", "additional_notes",
		"current_lead_index", "total_leads", "completed_calls", "created_at", "updated_at",
	}).AddRow(
		"gc-1", "user-1", "group-1", string(status), "general",
		"", "",
		index, total, index, now, now,
	)
}

func snapshotRows(phones ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"lead_id", "name", "phone_number"})
	for i, phone := range phones {
		rows.AddRow("lead-"+string(rune('a'+i)), "Lead", phone)
	}
	return rows
}

func TestPostgresRepo_Update_LocksRowAndPersists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM group_calls WHERE id = \\$1 FOR UPDATE").
		WithArgs("gc-1").
		WillReturnRows(groupCallRows(StatusQueued, 0, 2))
	mock.ExpectQuery("SELECT lead_id, name, phone_number FROM group_call_leads").
		WithArgs("gc-1").
		WillReturnRows(snapshotRows("+15550000001", "+15550000002"))
	mock.ExpectExec("UPDATE group_calls").
		WithArgs("gc-1", string(StatusInProgress), 0, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPostgresRepo(db)
	gc, err := repo.Update(context.Background(), "gc-1", func(gc *GroupCall) error {
		if gc.Status != StatusQueued {
			return ErrInvalidTransition
		}
		gc.Status = StatusInProgress
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if gc.Status != StatusInProgress || len(gc.Leads) != 2 {
		t.Fatalf("unexpected group call: %+v", gc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepo_Update_MutationErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM group_calls WHERE id = \\$1 FOR UPDATE").
		WithArgs("gc-1").
		WillReturnRows(groupCallRows(StatusCompleted, 2, 2))
	mock.ExpectQuery("SELECT lead_id, name, phone_number FROM group_call_leads").
		WithArgs("gc-1").
		WillReturnRows(snapshotRows("+15550000001", "+15550000002"))
	mock.ExpectRollback()

	repo := NewPostgresRepo(db)
	_, err = repo.Update(context.Background(), "gc-1", func(gc *GroupCall) error {
		if gc.Status != StatusQueued {
			return ErrInvalidTransition
		}
		gc.Status = StatusInProgress
		return nil
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
