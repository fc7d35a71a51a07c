package calls

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is a simple in-memory call store for tests and early development.
// It mirrors the Postgres repository's semantics, including the provider call
// id uniqueness constraint.

type MemoryRepo struct {
	mu sync.Mutex

	calls      map[string]Call
	byProvider map[string]string // provider_call_id -> call id
	recordings map[string]Recording
	actions    []CallAction
	tickets    []Ticket

	clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		calls:      map[string]Call{},
		byProvider: map[string]string{},
		recordings: map[string]Recording{},
		clock:      time.Now,
	}
}

func (r *MemoryRepo) CreateCall(ctx context.Context, c Call) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ProviderCallID != "" {
		if _, ok := r.byProvider[c.ProviderCallID]; ok {
			return Call{}, ErrConflict
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := r.clock().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	r.calls[c.ID] = c
	if c.ProviderCallID != "" {
		r.byProvider[c.ProviderCallID] = c.ID
	}
	return c, nil
}

func (r *MemoryRepo) GetCall(ctx context.Context, id string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) GetCallByProviderID(ctx context.Context, providerCallID string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byProvider[providerCallID]
	if !ok {
		return Call{}, ErrNotFound
	}
	return r.calls[id], nil
}

func (r *MemoryRepo) UpdateCall(ctx context.Context, c Call) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.calls[c.ID]
	if !ok {
		return Call{}, ErrNotFound
	}
	c.CreatedAt = prev.CreatedAt
	c.UpdatedAt = r.clock().UTC()
	r.calls[c.ID] = c
	if c.ProviderCallID != "" {
		r.byProvider[c.ProviderCallID] = c.ID
	}
	return c, nil
}

func (r *MemoryRepo) ListCalls(ctx context.Context, f ListFilter) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, 0, len(r.calls))
	for _, c := range r.calls {
		if f.Direction != "" && c.Direction != f.Direction {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []Call{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) ListCallsInRange(ctx context.Context, from, to time.Time) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, 0)
	for _, c := range r.calls {
		if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) AddRecording(ctx context.Context, rec Recording) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[rec.CallID]; !ok {
		return Recording{}, ErrNotFound
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.clock().UTC()
	}
	r.recordings[rec.ID] = rec
	return rec, nil
}

func (r *MemoryRepo) UpdateRecording(ctx context.Context, rec Recording) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recordings[rec.ID]; !ok {
		return Recording{}, ErrNotFound
	}
	r.recordings[rec.ID] = rec
	return rec, nil
}

func (r *MemoryRepo) AddAction(ctx context.Context, a CallAction) (CallAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[a.CallID]; !ok {
		return CallAction{}, ErrNotFound
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := r.clock().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	r.actions = append(r.actions, a)
	return a, nil
}

func (r *MemoryRepo) ListActions(ctx context.Context, callID string) ([]CallAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallAction, 0)
	for _, a := range r.actions {
		if a.CallID == callID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryRepo) AddTicket(ctx context.Context, t Ticket) (Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[t.CallID]; !ok {
		return Ticket{}, ErrNotFound
	}
	for _, existing := range r.tickets {
		if existing.TicketNumber == t.TicketNumber {
			return Ticket{}, ErrConflict
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := r.clock().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	r.tickets = append(r.tickets, t)
	return t, nil
}

func (r *MemoryRepo) ListTickets(ctx context.Context, callID string) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Ticket, 0)
	for _, t := range r.tickets {
		if t.CallID == callID {
			out = append(out, t)
		}
	}
	return out, nil
}
