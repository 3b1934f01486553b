package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signupgate/internal/signup/service"
	"signupgate/pkg/platform/sentinel"
)

var (
	_ service.StepLock = (*InMemoryStepLock)(nil)
	_ service.StepLock = (*RedisStepLock)(nil)
)

func TestInMemoryStepLock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lock := NewInMemoryStepLock()
	lock.now = func() time.Time { return now }

	release, err := lock.Acquire(ctx, "wf:request_code", time.Minute)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "wf:request_code", time.Minute)
	assert.ErrorIs(t, err, sentinel.ErrLocked)

	_, err = lock.Acquire(ctx, "wf:confirm_code", time.Minute)
	assert.NoError(t, err, "steps lock independently")

	require.NoError(t, release(ctx))
	release2, err := lock.Acquire(ctx, "wf:request_code", time.Minute)
	require.NoError(t, err)

	// an expired lease can be taken over; the old holder's release is a no-op
	now = now.Add(2 * time.Minute)
	release3, err := lock.Acquire(ctx, "wf:request_code", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release2(ctx))
	_, err = lock.Acquire(ctx, "wf:request_code", time.Minute)
	assert.ErrorIs(t, err, sentinel.ErrLocked)
	require.NoError(t, release3(ctx))
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStepLock(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	lock := NewRedisStepLock(client, "")

	release, err := lock.Acquire(ctx, "wf:submit", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("signupgate:lock:wf:submit"))
	assert.Equal(t, 30*time.Second, mr.TTL("signupgate:lock:wf:submit"))

	_, err = lock.Acquire(ctx, "wf:submit", 30*time.Second)
	assert.ErrorIs(t, err, sentinel.ErrLocked)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("signupgate:lock:wf:submit"))

	_, err = lock.Acquire(ctx, "wf:submit", 30*time.Second)
	assert.NoError(t, err)
}

func TestRedisStepLockExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedis(t)
	lock := NewRedisStepLock(client, "test")

	staleRelease, err := lock.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = lock.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err, "expired lock can be taken")

	require.NoError(t, staleRelease(ctx))
	assert.True(t, mr.Exists("test:k"), "a stale holder must not release the new owner's lock")
}

func TestRedisStepLockUnavailable(t *testing.T) {
	mr, client := newMiniRedis(t)
	mr.Close()

	_, err := NewRedisStepLock(client, "").Acquire(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}
