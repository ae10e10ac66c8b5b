package callrecords

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"outdial/pkg/utils"

	"github.com/google/uuid"
)

// PostgresRepo persists call records in the call_records table.
//
// Transition locks the row (SELECT ... FOR UPDATE) so the forward-only
// check and the update are one atomic read-modify-write even under
// concurrent webhook deliveries.
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

const recordColumns = `id, COALESCE(provider_call_id, ''), lead_id, user_id, COALESCE(group_call_id, ''),
phone_number, status, COALESCE(outcome, ''), duration, purpose,
COALESCE(custom_prompt, ''), COALESCE(additional_notes, ''), created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.ProviderCallID, &rec.LeadID, &rec.UserID, &rec.GroupCallID,
		&rec.PhoneNumber, &rec.Status, &rec.Outcome, &rec.DurationSeconds, &rec.Purpose,
		&rec.CustomPrompt, &rec.AdditionalNotes, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (r *PostgresRepo) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.LeadID == "" || rec.UserID == "" || rec.PhoneNumber == "" {
		return Record{}, ErrInvalidArgument
	}
	if rec.Status == "" {
		rec.Status = StatusInitiated
	}
	if !rec.Status.Valid() {
		return Record{}, ErrInvalidArgument
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := r.clock().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	const q = `
INSERT INTO call_records
(id, provider_call_id, lead_id, user_id, group_call_id, phone_number, status, outcome, duration, purpose, custom_prompt, additional_notes, created_at, updated_at)
VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''), $9, $10, NULLIF($11, ''), NULLIF($12, ''), $13, $14)`

	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.ProviderCallID, rec.LeadID, rec.UserID, rec.GroupCallID,
		rec.PhoneNumber, rec.Status, rec.Outcome, rec.DurationSeconds, rec.Purpose,
		rec.CustomPrompt, rec.AdditionalNotes, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) AttachProviderCallID(ctx context.Context, id, providerCallID string) error {
	if providerCallID == "" {
		return ErrInvalidArgument
	}

	const q = `
UPDATE call_records
SET provider_call_id = $2, updated_at = $3
WHERE id = $1 AND provider_call_id IS NULL`

	res, err := r.db.ExecContext(ctx, q, id, providerCallID, r.clock().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM call_records WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) GetByProviderCallID(ctx context.Context, providerCallID string) (Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM call_records WHERE provider_call_id = $1`, providerCallID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) Transition(ctx context.Context, id string, req TransitionRequest) (Record, error) {
	if !req.To.Valid() {
		return Record{}, ErrInvalidArgument
	}

	var out Record
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		rec, err := scanRecord(tx.QueryRowContext(ctx,
			`SELECT `+recordColumns+` FROM call_records WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if rec.Status.IsTerminal() {
			out = rec
			return ErrAlreadyTerminal
		}
		if !CanTransition(rec.Status, req.To) {
			out = rec
			return ErrStatusRegression
		}

		rec.Status = req.To
		if req.To.IsTerminal() {
			if req.DurationSeconds != nil {
				rec.DurationSeconds = *req.DurationSeconds
			}
			if o, ok := OutcomeForStatus(req.To); ok {
				rec.Outcome = o
			}
		}
		rec.UpdatedAt = r.clock().UTC()

		const q = `
UPDATE call_records
SET status = $2, outcome = NULLIF($3, ''), duration = $4, updated_at = $5
WHERE id = $1`
		if _, err := tx.ExecContext(ctx, q, rec.ID, rec.Status, rec.Outcome, rec.DurationSeconds, rec.UpdatedAt); err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

func (r *PostgresRepo) List(ctx context.Context, userID string, f ListFilter) ([]Record, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}

	q := `SELECT ` + recordColumns + ` FROM call_records WHERE user_id = $1`
	args := []any{userID}
	if f.GroupCallID != "" {
		args = append(args, f.GroupCallID)
		q += ` AND group_call_id = $2`
	}
	if f.LeadID != "" {
		args = append(args, f.LeadID)
		if f.GroupCallID != "" {
			q += ` AND lead_id = $3`
		} else {
			q += ` AND lead_id = $2`
		}
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

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
