package leads

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresStore reads leads and groups from Postgres.
//
// Expected tables:
// - leads (id, user_id, name, phone, email, company, notes, priority, created_at, updated_at)
//   with UNIQUE (user_id, phone)
// - groups (id, user_id, name, description, created_at, updated_at)
// - lead_groups (lead_id, group_id, position)
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) GetGroupLeadsSnapshot(ctx context.Context, userID, groupID string) ([]QueueLead, error) {
	// Ownership check first so a foreign group reads as not-found.
	if _, err := s.GetGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}

	const q = `
SELECT l.id, l.name, l.phone
FROM lead_groups lg
JOIN leads l ON l.id = lg.lead_id
WHERE lg.group_id = $1
ORDER BY lg.position, l.created_at, l.id`

	rows, err := s.db.QueryContext(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QueueLead
	for rows.Next() {
		var ql QueueLead
		if err := rows.Scan(&ql.LeadID, &ql.Name, &ql.PhoneNumber); err != nil {
			return nil, err
		}
		out = append(out, ql)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetGroup(ctx context.Context, userID, groupID string) (Group, error) {
	const q = `
SELECT id, user_id, name, COALESCE(description, ''), created_at, updated_at
FROM groups
WHERE id = $1 AND user_id = $2`

	var g Group
	err := s.db.QueryRowContext(ctx, q, groupID, userID).Scan(
		&g.ID, &g.UserID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, err
	}
	return g, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, userID, leadID string) (Lead, error) {
	const q = `
SELECT id, user_id, name, phone, COALESCE(email, ''), COALESCE(company, ''), COALESCE(notes, ''), priority, created_at, updated_at
FROM leads
WHERE id = $1 AND user_id = $2`

	var l Lead
	err := s.db.QueryRowContext(ctx, q, leadID, userID).Scan(
		&l.ID, &l.UserID, &l.Name, &l.Phone, &l.Email, &l.Company, &l.Notes, &l.Priority, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return l, nil
}
