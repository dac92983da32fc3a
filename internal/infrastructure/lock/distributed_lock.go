package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// Redis lock
// ============================================================================
//
// SET key value NX PX ttl takes the lock; the value identifies the holder so
// Unlock only deletes a lock it still owns. Ledger mutations never use this:
// they are serialized by the database. It only keeps outbox publishing to
// one instance at a time.
//
// ============================================================================

const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock takes the lock without waiting.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Unlock releases the lock if this holder still owns it.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	return l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Err()
}

// NewOutboxLock guards one outbox batch. owner should be unique per process.
func NewOutboxLock(client *redis.Client, owner string, ttl time.Duration) *DistributedLock {
	return NewDistributedLock(client, "bizledger:lock:outbox", owner, ttl)
}
