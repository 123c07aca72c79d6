package runlock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/renewal/internal/runlock"
)

func newLocker(t *testing.T, ttl time.Duration) (
	*runlock.Locker, *miniredis.Miniredis,
) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{
		Addr:            server.Addr(),
		Protocol:        2,
		DisableIdentity: true,
	})
	t.Cleanup(func() { _ = client.Close() })
	return runlock.New(client, "renewal:", ttl), server
}

func TestAcquireRelease(t *testing.T) {
	l, server := newLocker(t, time.Minute)
	ctx := context.Background()

	lock, err := l.Acquire(ctx, "POL-001")
	require.NoError(t, err)
	assert.Equal(t, "POL-001", lock.PolicyID)
	assert.True(t, server.Exists("renewal:runlock:POL-001"))

	_, err = l.Acquire(ctx, "POL-001")
	assert.ErrorIs(t, err, runlock.ErrLocked)

	other, err := l.Acquire(ctx, "POL-002")
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lock.Release(ctx))
	assert.False(t, server.Exists("renewal:runlock:POL-001"))

	assert.ErrorIs(t, lock.Release(ctx), runlock.ErrNotHeld)
}

func TestExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	l, server := newLocker(t, time.Minute)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "POL-001")
	require.NoError(t, err)
	server.FastForward(2 * time.Minute)

	fresh, err := l.Acquire(ctx, "POL-001")
	require.NoError(t, err)

	assert.ErrorIs(t, stale.Release(ctx), runlock.ErrNotHeld)
	assert.ErrorIs(t, stale.Extend(ctx), runlock.ErrNotHeld)
	assert.True(t, server.Exists("renewal:runlock:POL-001"))
	assert.NoError(t, fresh.Release(ctx))
}

func TestExtend(t *testing.T) {
	l, server := newLocker(t, time.Minute)
	ctx := context.Background()

	lock, err := l.Acquire(ctx, "POL-001")
	require.NoError(t, err)
	server.FastForward(50 * time.Second)
	require.NoError(t, lock.Extend(ctx))
	server.FastForward(50 * time.Second)

	assert.True(t, server.Exists("renewal:runlock:POL-001"))
	assert.Equal(t, 10*time.Second, server.TTL("renewal:runlock:POL-001"))
	require.NoError(t, lock.Release(ctx))
}

func TestDefaultTTL(t *testing.T) {
	l, server := newLocker(t, 0)
	_, err := l.Acquire(context.Background(), "POL-001")
	require.NoError(t, err)
	assert.Equal(t, runlock.DefaultTTL, server.TTL("renewal:runlock:POL-001"))
}

func TestUnavailable(t *testing.T) {
	l, server := newLocker(t, time.Minute)
	server.Close()

	_, err := l.Acquire(context.Background(), "POL-001")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, runlock.ErrLocked)
}
