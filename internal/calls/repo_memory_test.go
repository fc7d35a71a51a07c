package calls

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRepo_CreateAndGetByProviderID(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	c, err := repo.CreateCall(ctx, Call{
		ProviderCallID: "CA123",
		From:           "+15550001111",
		Direction:      DirectionInbound,
		Status:         CallStatusInitiated,
		Language:       "en",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.ID == "" {
		t.Fatalf("expected generated id")
	}

	got, err := repo.GetCallByProviderID(ctx, "CA123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("expected same call, got %q vs %q", got.ID, c.ID)
	}
}

func TestMemoryRepo_ProviderIDUnique(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if _, err := repo.CreateCall(ctx, Call{ProviderCallID: "CA1", From: "+1", Direction: DirectionInbound, Status: CallStatusInitiated}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := repo.CreateCall(ctx, Call{ProviderCallID: "CA1", From: "+2", Direction: DirectionInbound, Status: CallStatusInitiated}); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMemoryRepo_UpdateRoundTrip(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	c, err := repo.CreateCall(ctx, Call{From: "+1", Direction: DirectionOutbound, Status: CallStatusQueued, Language: "en"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	c.Transcript = "I need a callback tomorrow"
	c.Intent = "schedule_callback"
	c.DurationSeconds = 30
	c.Status = CallStatusCompleted
	updated, err := repo.UpdateCall(ctx, c)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, err := repo.GetCall(ctx, c.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Transcript != "I need a callback tomorrow" || got.Intent != "schedule_callback" || got.DurationSeconds != 30 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("expected updated_at >= created_at")
	}
	if !updated.UpdatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("expected update result to match stored row")
	}
}

func TestMemoryRepo_ListCallsFiltersAndOrders(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, dir := range []Direction{DirectionInbound, DirectionOutbound, DirectionInbound} {
		_, err := repo.CreateCall(ctx, Call{
			From:      "+1",
			Direction: dir,
			Status:    CallStatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	inbound, err := repo.ListCalls(ctx, ListFilter{Direction: DirectionInbound})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(inbound) != 2 {
		t.Fatalf("expected 2 inbound, got %d", len(inbound))
	}
	if inbound[0].CreatedAt.Before(inbound[1].CreatedAt) {
		t.Fatalf("expected created_at descending")
	}

	limited, err := repo.ListCalls(ctx, ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 call, got %d", len(limited))
	}
}

func TestMemoryRepo_ActionsRequireExistingCall(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if _, err := repo.AddAction(ctx, CallAction{CallID: "missing", Type: ActionTypeCallback, Status: ActionStatusPending}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
