package callrecords

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func recordRows(status Status, duration int) *sqlmock.Rows {
	now := time.Unix(1700000000, 0).UTC()
	return sqlmock.NewRows([]string{
		"id", "provider_call_id", "lead_id", "user_id", "group_call_id",
		"phone_number", "status", "outcome", "duration", "purpose",
		"custom_prompt", "additional_notes", "created_at", "updated_at",
	}).AddRow(
		"rec-1", "CA1", "lead-1", "user-1", "gc-1",
		"+15550001111", string(status), "", duration, "general",
		"", "", now, now,
	)
}

func TestPostgresRepo_Transition_AppliesTerminalStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM call_records WHERE id = \\$1 FOR UPDATE").
		WithArgs("rec-1").
		WillReturnRows(recordRows(StatusRinging, 0))
	mock.ExpectExec("UPDATE call_records").
		WithArgs("rec-1", string(StatusCompleted), string(OutcomeCompleted), 42, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPostgresRepo(db)
	dur := 42
	rec, err := repo.Transition(context.Background(), "rec-1", TransitionRequest{To: StatusCompleted, DurationSeconds: &dur})
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if rec.Status != StatusCompleted || rec.DurationSeconds != 42 || rec.Outcome != OutcomeCompleted {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepo_Transition_AlreadyTerminalRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM call_records WHERE id = \\$1 FOR UPDATE").
		WithArgs("rec-1").
		WillReturnRows(recordRows(StatusFailed, 7))
	mock.ExpectRollback()

	repo := NewPostgresRepo(db)
	rec, err := repo.Transition(context.Background(), "rec-1", TransitionRequest{To: StatusCompleted})
	if !errors.Is(err, ErrAlreadyTerminal) {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
	if rec.Status != StatusFailed || rec.DurationSeconds != 7 {
		t.Fatalf("terminal record should be returned unchanged: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepo_AttachProviderCallID_SetOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE call_records").
		WithArgs("rec-1", "CA1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresRepo(db)
	err = repo.AttachProviderCallID(context.Background(), "rec-1", "CA1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when provider id already set, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
