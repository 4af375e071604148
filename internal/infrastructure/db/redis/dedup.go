package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 26 * time.Hour

// SubmissionDedup remembers idempotency keys of sales submissions in Redis.
// Key format: dedup:<scope>:<key>, where scope is the sales entry key.
type SubmissionDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSubmissionDedup wraps client. Keys expire after ttl, which defaults to
// slightly more than one business day.
func NewSubmissionDedup(client *redis.Client, ttl time.Duration) *SubmissionDedup {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &SubmissionDedup{client: client, ttl: ttl}
}

// Claim atomically records key and reports whether it had already been recorded.
func (d *SubmissionDedup) Claim(ctx context.Context, scope, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(scope, key), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim: %w", err)
	}
	return !ok, nil
}

// Release forgets key.
func (d *SubmissionDedup) Release(ctx context.Context, scope, key string) error {
	if err := d.client.Del(ctx, d.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("dedup release: %w", err)
	}
	return nil
}

func (d *SubmissionDedup) key(scope, key string) string {
	return fmt.Sprintf("dedup:%s:%s", scope, key)
}
