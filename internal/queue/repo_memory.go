package queue

import (
	"context"
	"sync"
	"time"

	"outdial/internal/leads"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory group call repository for tests and early
// development. Update holds the repo mutex across the whole closure, so
// it is an atomic read-modify-write like the Postgres row lock.
type MemoryRepo struct {
	mu    sync.Mutex
	calls map[string]*GroupCall

	clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{calls: map[string]*GroupCall{}, clock: time.Now}
}

func (r *MemoryRepo) Create(ctx context.Context, gc GroupCall) (GroupCall, error) {
	if gc.UserID == "" || gc.GroupID == "" {
		return GroupCall{}, ErrInvalidArgument
	}
	if gc.ID == "" {
		gc.ID = uuid.NewString()
	}
	if gc.Status == "" {
		gc.Status = StatusQueued
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock().UTC()
	gc.CreatedAt = now
	gc.UpdatedAt = now
	cp := gc
	cp.Leads = append([]leads.QueueLead(nil), gc.Leads...)
	r.calls[gc.ID] = &cp
	return gc, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (GroupCall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gc, ok := r.calls[id]
	if !ok {
		return GroupCall{}, ErrNotFound
	}
	return snapshotOf(gc), nil
}

func (r *MemoryRepo) GetForUser(ctx context.Context, userID, id string) (GroupCall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gc, ok := r.calls[id]
	if !ok || gc.UserID != userID {
		return GroupCall{}, ErrNotFound
	}
	return snapshotOf(gc), nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, fn UpdateFunc) (GroupCall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gc, ok := r.calls[id]
	if !ok {
		return GroupCall{}, ErrNotFound
	}

	work := snapshotOf(gc)
	if err := fn(&work); err != nil {
		return snapshotOf(gc), err
	}
	work.UpdatedAt = r.clock().UTC()
	*gc = work
	return snapshotOf(gc), nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, f ListFilter) ([]GroupCall, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]GroupCall, 0)
	for _, gc := range r.calls {
		if gc.UserID != userID {
			continue
		}
		if f.Status != "" && gc.Status != f.Status {
			continue
		}
		out = append(out, snapshotOf(gc))
	}
	sortGroupCalls(out)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []GroupCall{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func snapshotOf(gc *GroupCall) GroupCall {
	cp := *gc
	cp.Leads = append([]leads.QueueLead(nil), gc.Leads...)
	return cp
}

func sortGroupCalls(gcs []GroupCall) {
	for i := 1; i < len(gcs); i++ {
		for j := i; j > 0; j-- {
			a, b := gcs[j-1], gcs[j]
			if a.CreatedAt.After(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID > b.ID) {
				gcs[j-1], gcs[j] = b, a
			} else {
				break
			}
		}
	}
}
