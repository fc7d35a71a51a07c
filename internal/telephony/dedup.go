package telephony

import (
	"context"
	"time"

	"voice-agent-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Deduper suppresses repeated webhook deliveries of the same provider event.
//
// Best-effort at-most-once hint only: a redis outage lets duplicates through,
// and the call store's provider id uniqueness is the real idempotency
// backstop. TTL bounds memory; providers retry within minutes, not days.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Deduper{rdb: rdb, ttl: ttl}
}

// ClaimOnce returns true the first time key is seen within the TTL window.
func (d *Deduper) ClaimOnce(ctx context.Context, key string) (bool, error) {
	if d == nil || d.rdb == nil {
		return true, nil
	}
	return utils.ClaimOnce(ctx, d.rdb, "webhook_event:"+key, d.ttl)
}
