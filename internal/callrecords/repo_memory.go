package callrecords

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory call record repository for tests.
// A single mutex makes Transition an atomic read-modify-write, matching
// the contract the Postgres implementation provides via row locking.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]Record
	byCSID  map[string]string // provider call id -> record id

	clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records: map[string]Record{},
		byCSID:  map[string]string{},
		clock:   time.Now,
	}
}

func (r *MemoryRepo) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.LeadID == "" || rec.UserID == "" || rec.PhoneNumber == "" {
		return Record{}, ErrInvalidArgument
	}
	if rec.Status == "" {
		rec.Status = StatusInitiated
	}
	if !rec.Status.Valid() {
		return Record{}, ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := r.clock().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.records[rec.ID] = rec
	if rec.ProviderCallID != "" {
		r.byCSID[rec.ProviderCallID] = rec.ID
	}
	return rec, nil
}

func (r *MemoryRepo) AttachProviderCallID(ctx context.Context, id, providerCallID string) error {
	if providerCallID == "" {
		return ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	// Provider id is set exactly once.
	if rec.ProviderCallID != "" {
		return ErrNotFound
	}
	rec.ProviderCallID = providerCallID
	rec.UpdatedAt = r.clock().UTC()
	r.records[id] = rec
	r.byCSID[providerCallID] = id
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) GetByProviderCallID(ctx context.Context, providerCallID string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byCSID[providerCallID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r.records[id], nil
}

func (r *MemoryRepo) Transition(ctx context.Context, id string, req TransitionRequest) (Record, error) {
	if !req.To.Valid() {
		return Record{}, ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if rec.Status.IsTerminal() {
		return rec, ErrAlreadyTerminal
	}
	if !CanTransition(rec.Status, req.To) {
		return rec, ErrStatusRegression
	}

	rec.Status = req.To
	if req.To.IsTerminal() {
		if req.DurationSeconds != nil {
			rec.DurationSeconds = *req.DurationSeconds
		}
		if out, ok := OutcomeForStatus(req.To); ok {
			rec.Outcome = out
		}
	}
	rec.UpdatedAt = r.clock().UTC()
	r.records[id] = rec
	return rec, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, f ListFilter) ([]Record, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0)
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		if f.GroupCallID != "" && rec.GroupCallID != f.GroupCallID {
			continue
		}
		if f.LeadID != "" && rec.LeadID != f.LeadID {
			continue
		}
		out = append(out, rec)
	}
	// Stable order for callers and tests.
	sortRecords(out)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []Record{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func sortRecords(rs []Record) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0; j-- {
			a, b := rs[j-1], rs[j]
			if a.CreatedAt.After(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID > b.ID) {
				rs[j-1], rs[j] = b, a
			} else {
				break
			}
		}
	}
}
