package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const runLockKey = "market-mood:ingest:lock"

// RunLock is a best-effort distributed lock guaranteeing that scheduled
// ingestion runs do not overlap, even with multiple pipeline replicas. The
// TTL bounds how long a crashed holder can block the next run.
type RunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RunLock{client: client, key: runLockKey, ttl: ttl}
}

// Acquire tries to take the lock. It returns false, without error, when
// another run already holds it.
func (l *RunLock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

// Release drops the lock. Safe to call when the TTL already expired.
func (l *RunLock) Release(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}
