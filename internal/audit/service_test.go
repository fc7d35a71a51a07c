package audit

import (
	"context"
	"strings"
	"testing"
)

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Append(context.Background(), Event{Message: "no type"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_LogTaxonomyMismatch(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogTaxonomyMismatch(context.Background(), "call1", "general_inquiry", "other", "ticket"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	if evs[0].Type != EventTypeTaxonomyMismatch {
		t.Fatalf("expected taxonomy_mismatch, got %q", evs[0].Type)
	}
	if evs[0].CallID != "call1" {
		t.Fatalf("expected call id captured")
	}
	if !strings.Contains(evs[0].Message, "general_inquiry") {
		t.Fatalf("expected label in message, got %q", evs[0].Message)
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be filled")
	}
}
