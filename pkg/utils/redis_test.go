package utils

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestClaimOnce_ValidatesInput(t *testing.T) {
	ctx := context.Background()

	if _, err := ClaimOnce(ctx, nil, "k", time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}

	// Validation failures short-circuit before any network call.
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	if _, err := ClaimOnce(ctx, rdb, "", time.Second); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := ClaimOnce(ctx, rdb, "k", 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
