// Package runlock guards against concurrent runs for the same policy
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type (
	// Locker hands out per-policy run locks stored in Redis
	Locker struct {
		client *redis.Client
		prefix string
		ttl    time.Duration
	}

	// Lock is a held run lock
	Lock struct {
		locker   *Locker
		key      string
		token    string
		PolicyID string
	}
)

// DefaultTTL bounds how long a crashed run can keep a policy locked
const DefaultTTL = 10 * time.Minute

var (
	ErrLocked  = errors.New("run already in progress")
	ErrNotHeld = errors.New("lock is no longer held")
)

var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extend = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// New creates a Locker. A non-positive ttl uses DefaultTTL
func New(client *redis.Client, prefix string, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Acquire takes the run lock of a policy or returns ErrLocked
func (l *Locker) Acquire(ctx context.Context, policyID string) (*Lock, error) {
	key := l.key(policyID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", policyID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, policyID)
	}
	return &Lock{
		locker:   l,
		key:      key,
		token:    token,
		PolicyID: policyID,
	}, nil
}

// Release frees the lock if it is still held by this holder
func (lk *Lock) Release(ctx context.Context) error {
	n, err := release.Run(ctx, lk.locker.client, []string{lk.key},
		lk.token,
	).Int64()
	if err != nil {
		return fmt.Errorf("release %s: %w", lk.PolicyID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, lk.PolicyID)
	}
	return nil
}

// Extend pushes the lock's expiry out by the locker's ttl
func (lk *Lock) Extend(ctx context.Context) error {
	n, err := extend.Run(ctx, lk.locker.client, []string{lk.key},
		lk.token, lk.locker.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("extend %s: %w", lk.PolicyID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotHeld, lk.PolicyID)
	}
	return nil
}

func (l *Locker) key(policyID string) string {
	return l.prefix + "runlock:" + policyID
}
