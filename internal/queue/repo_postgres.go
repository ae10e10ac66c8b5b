package queue

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"outdial/internal/leads"
	"outdial/pkg/utils"

	"github.com/google/uuid"
)

// PostgresRepo persists group calls in group_calls with the creation-time
// lead snapshot in group_call_leads (ordered by position).
//
// Update locks the group_calls row (SELECT ... FOR UPDATE) so status and
// cursor mutations are atomic read-modify-writes.
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

const groupCallColumns = `id, user_id, group_id, status, purpose,
COALESCE(custom_prompt, ''), COALESCE(additional_notes, ''),
current_lead_index, total_leads, completed_calls, created_at, updated_at`

func scanGroupCall(row interface{ Scan(...any) error }) (GroupCall, error) {
	var gc GroupCall
	err := row.Scan(
		&gc.ID, &gc.UserID, &gc.GroupID, &gc.Status, &gc.Purpose,
		&gc.CustomPrompt, &gc.AdditionalNotes,
		&gc.CurrentLeadIndex, &gc.TotalLeads, &gc.CompletedCalls, &gc.CreatedAt, &gc.UpdatedAt,
	)
	return gc, err
}

func (r *PostgresRepo) Create(ctx context.Context, gc GroupCall) (GroupCall, error) {
	if gc.UserID == "" || gc.GroupID == "" {
		return GroupCall{}, ErrInvalidArgument
	}
	if gc.ID == "" {
		gc.ID = uuid.NewString()
	}
	if gc.Status == "" {
		gc.Status = StatusQueued
	}
	now := r.clock().UTC()
	gc.CreatedAt = now
	gc.UpdatedAt = now

	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
INSERT INTO group_calls
(id, user_id, group_id, status, purpose, custom_prompt, additional_notes, current_lead_index, total_leads, completed_calls, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, $12)`
		if _, err := tx.ExecContext(ctx, q,
			gc.ID, gc.UserID, gc.GroupID, gc.Status, gc.Purpose,
			gc.CustomPrompt, gc.AdditionalNotes,
			gc.CurrentLeadIndex, gc.TotalLeads, gc.CompletedCalls, gc.CreatedAt, gc.UpdatedAt,
		); err != nil {
			return err
		}

		const insLead = `
INSERT INTO group_call_leads (group_call_id, position, lead_id, name, phone_number)
VALUES ($1, $2, $3, $4, $5)`
		for i, l := range gc.Leads {
			if _, err := tx.ExecContext(ctx, insLead, gc.ID, i, l.LeadID, l.Name, l.PhoneNumber); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return GroupCall{}, err
	}
	return gc, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (GroupCall, error) {
	gc, err := scanGroupCall(r.db.QueryRowContext(ctx,
		`SELECT `+groupCallColumns+` FROM group_calls WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return GroupCall{}, ErrNotFound
	}
	if err != nil {
		return GroupCall{}, err
	}
	gc.Leads, err = r.loadSnapshot(ctx, r.db, id)
	if err != nil {
		return GroupCall{}, err
	}
	return gc, nil
}

func (r *PostgresRepo) GetForUser(ctx context.Context, userID, id string) (GroupCall, error) {
	gc, err := scanGroupCall(r.db.QueryRowContext(ctx,
		`SELECT `+groupCallColumns+` FROM group_calls WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return GroupCall{}, ErrNotFound
	}
	if err != nil {
		return GroupCall{}, err
	}
	gc.Leads, err = r.loadSnapshot(ctx, r.db, id)
	if err != nil {
		return GroupCall{}, err
	}
	return gc, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, fn UpdateFunc) (GroupCall, error) {
	var out GroupCall
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		gc, err := scanGroupCall(tx.QueryRowContext(ctx,
			`SELECT `+groupCallColumns+` FROM group_calls WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		gc.Leads, err = r.loadSnapshot(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := fn(&gc); err != nil {
			out = gc
			return err
		}
		gc.UpdatedAt = r.clock().UTC()

		const q = `
UPDATE group_calls
SET status = $2, current_lead_index = $3, completed_calls = $4, updated_at = $5
WHERE id = $1`
		if _, err := tx.ExecContext(ctx, q, gc.ID, gc.Status, gc.CurrentLeadIndex, gc.CompletedCalls, gc.UpdatedAt); err != nil {
			return err
		}
		out = gc
		return nil
	})
	return out, err
}

func (r *PostgresRepo) List(ctx context.Context, userID string, f ListFilter) ([]GroupCall, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}

	q := `SELECT ` + groupCallColumns + ` FROM group_calls WHERE user_id = $1`
	args := []any{userID}
	if f.Status != "" {
		args = append(args, f.Status)
		q += ` AND status = $2`
	}
	q += ` ORDER BY created_at, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]GroupCall, 0)
	for rows.Next() {
		gc, err := scanGroupCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *PostgresRepo) loadSnapshot(ctx context.Context, q querier, groupCallID string) ([]leads.QueueLead, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT lead_id, name, phone_number FROM group_call_leads WHERE group_call_id = $1 ORDER BY position`,
		groupCallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]leads.QueueLead, 0)
	for rows.Next() {
		var l leads.QueueLead
		if err := rows.Scan(&l.LeadID, &l.Name, &l.PhoneNumber); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
