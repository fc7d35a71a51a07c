package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("calls: not found")
	ErrConflict = errors.New("calls: provider call id already exists")
)

// ListFilter narrows ListCalls output. Zero values mean "no filter".
type ListFilter struct {
	Direction Direction
	Status    CallStatus
	Offset    int
	Limit     int
}

// Repository is the persistence contract for the call store.
//
// Lookups by provider call id exist so webhook deliveries (which only carry
// the vendor identifier) can be applied idempotently. Multi-step flows are
// NOT transactional across calls to this interface; each method is one commit.
type Repository interface {
	CreateCall(ctx context.Context, c Call) (Call, error)
	GetCall(ctx context.Context, id string) (Call, error)
	GetCallByProviderID(ctx context.Context, providerCallID string) (Call, error)
	UpdateCall(ctx context.Context, c Call) (Call, error)

	// ListCalls returns calls ordered by created_at descending.
	ListCalls(ctx context.Context, f ListFilter) ([]Call, error)

	// ListCallsInRange returns calls with from <= created_at < to, any order.
	ListCallsInRange(ctx context.Context, from, to time.Time) ([]Call, error)

	AddRecording(ctx context.Context, r Recording) (Recording, error)
	UpdateRecording(ctx context.Context, r Recording) (Recording, error)

	AddAction(ctx context.Context, a CallAction) (CallAction, error)
	ListActions(ctx context.Context, callID string) ([]CallAction, error)

	AddTicket(ctx context.Context, t Ticket) (Ticket, error)
	ListTickets(ctx context.Context, callID string) ([]Ticket, error)
}
