package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruralsite/internal/config"
	console "ruralsite/internal/utils/logger"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func testConfig() config.LoginConfig {
	return config.LoginConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   10 * time.Minute,
		AttemptWindow:     5 * time.Minute,
		IPRateLimit:       1,
		IPBurst:           2,
	}
}

func TestMemoryStoreSlidingWindow(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	store := NewMemoryStore()
	store.now = c.now

	n, _ := store.RecordFailure(ctx, "a@example.com", time.Minute)
	assert.Equal(t, 1, n)
	c.advance(30 * time.Second)
	n, _ = store.RecordFailure(ctx, "a@example.com", time.Minute)
	assert.Equal(t, 2, n)
	c.advance(45 * time.Second)
	n, _ = store.RecordFailure(ctx, "a@example.com", time.Minute)
	assert.Equal(t, 2, n, "first failure fell out of the window")

	n, _ = store.RecordFailure(ctx, "b@example.com", time.Minute)
	assert.Equal(t, 1, n, "accounts are counted separately")
}

func TestMemoryStoreLockExpires(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	store := NewMemoryStore()
	store.now = c.now

	require.NoError(t, store.Lock(ctx, "a@example.com", time.Minute))
	d, _ := store.LockedFor(ctx, "a@example.com")
	assert.Equal(t, time.Minute, d)

	c.advance(61 * time.Second)
	d, _ = store.LockedFor(ctx, "a@example.com")
	assert.Zero(t, d)

	store.Prune(time.Minute)
	assert.Empty(t, store.entries)
}

func TestMemoryStoreDropsStaleKeysWhileRecording(t *testing.T) {
	defer console.Discard()()
	ctx := context.Background()
	c := newClock()
	store := NewMemoryStore()
	store.now = c.now
	cfg := testConfig()
	guard := NewLoginGuard(cfg, store)

	for _, email := range []string{"x1@example.com", "x2@example.com", "x3@example.com"} {
		guard.Failed(ctx, email)
	}
	for i := 0; i < cfg.MaxFailedAttempts; i++ {
		guard.Failed(ctx, "locked@example.com")
	}
	assert.Len(t, store.entries, 4)

	c.advance(cfg.AttemptWindow + time.Second)
	guard.Failed(ctx, "fresh@example.com")

	assert.Len(t, store.entries, 2)
	assert.Contains(t, store.entries, "fresh@example.com")
	assert.Contains(t, store.entries, "locked@example.com", "an active lockout survives")
	assert.NotContains(t, store.entries, "x1@example.com")
}

func TestLoginGuardLocksAfterMaxFailures(t *testing.T) {
	defer console.Discard()()
	ctx := context.Background()
	c := newClock()
	store := NewMemoryStore()
	store.now = c.now
	guard := NewLoginGuard(testConfig(), store)

	assert.Zero(t, guard.Failed(ctx, "a@example.com"))
	assert.Zero(t, guard.Failed(ctx, "a@example.com"))
	assert.Equal(t, 10*time.Minute, guard.Failed(ctx, "a@example.com"))
	assert.Equal(t, 10*time.Minute, guard.Locked(ctx, "a@example.com"))

	c.advance(10*time.Minute + time.Second)
	assert.Zero(t, guard.Locked(ctx, "a@example.com"))
}

func TestLoginGuardSuccessResets(t *testing.T) {
	ctx := context.Background()
	guard := NewLoginGuard(testConfig(), nil)

	guard.Failed(ctx, "a@example.com")
	guard.Failed(ctx, "a@example.com")
	guard.Succeeded(ctx, "a@example.com")

	assert.Zero(t, guard.Failed(ctx, "a@example.com"))
	assert.Zero(t, guard.Locked(ctx, "a@example.com"))
}

func TestLoginGuardIPBurst(t *testing.T) {
	guard := NewLoginGuard(testConfig(), nil)

	assert.True(t, guard.AllowIP("10.0.0.1"))
	assert.True(t, guard.AllowIP("10.0.0.1"))
	assert.False(t, guard.AllowIP("10.0.0.1"))
	assert.True(t, guard.AllowIP("10.0.0.2"))
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := newClock()
	store := NewRedisStore(client, "test")
	store.now = c.now

	for i := 1; i <= 3; i++ {
		n, err := store.RecordFailure(ctx, "a@example.com", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
		c.advance(25 * time.Second)
	}
	n, err := store.RecordFailure(ctx, "a@example.com", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "oldest failure left the window")

	require.NoError(t, store.Lock(ctx, "a@example.com", time.Minute))
	d, err := store.LockedFor(ctx, "a@example.com")
	require.NoError(t, err)
	assert.InDelta(t, float64(time.Minute), float64(d), float64(time.Second))
	assert.False(t, mr.Exists("test:failures:a@example.com"))

	mr.FastForward(2 * time.Minute)
	d, err = store.LockedFor(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Zero(t, d)

	require.NoError(t, store.Lock(ctx, "b@example.com", time.Minute))
	require.NoError(t, store.Reset(ctx, "b@example.com"))
	d, _ = store.LockedFor(ctx, "b@example.com")
	assert.Zero(t, d)
}

func TestLoginGuardFailsOpenOnStoreError(t *testing.T) {
	defer console.Discard()()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	guard := NewLoginGuard(testConfig(), NewRedisStore(client, ""))
	mr.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		assert.Zero(t, guard.Failed(ctx, "a@example.com"))
	}
	assert.Zero(t, guard.Locked(ctx, "a@example.com"))
}
