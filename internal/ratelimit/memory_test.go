package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestMemoryLimiterBlocksAfterLimit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter()
	l.now = clock.now
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "login:1.2.3.4", 5, 300*time.Second)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 4-i, d.Remaining)
		clock.t = clock.t.Add(time.Second)
	}

	d, err := l.Allow(ctx, "login:1.2.3.4", 5, 300*time.Second)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)
	require.Equal(t, time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC), d.ResetAt)
	require.Equal(t, 295*time.Second, d.RetryAfter(clock.t))

	other, err := l.Allow(ctx, "login:5.6.7.8", 5, 300*time.Second)
	require.NoError(t, err)
	require.True(t, other.Allowed)
}

func TestMemoryLimiterWindowSlides(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter()
	l.now = clock.now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.Allow(ctx, "reset:ip", 3, time.Hour)
		require.NoError(t, err)
	}
	d, _ := l.Allow(ctx, "reset:ip", 3, time.Hour)
	require.False(t, d.Allowed)

	clock.t = clock.t.Add(time.Hour + time.Second)
	d, _ = l.Allow(ctx, "reset:ip", 3, time.Hour)
	require.True(t, d.Allowed)
	require.Equal(t, 2, d.Remaining)
}

func TestMemoryLimiterPurge(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter()
	l.now = clock.now
	ctx := context.Background()

	_, _ = l.Allow(ctx, "a", 5, time.Minute)
	_, _ = l.Allow(ctx, "b", 5, time.Hour)
	require.Equal(t, 2, l.Size())

	clock.t = clock.t.Add(2 * time.Minute)
	require.Equal(t, 1, l.Purge())
}

func TestRuleKey(t *testing.T) {
	require.Equal(t, "ratelimit:login:10.0.0.1", Rule{Scope: "login"}.Key("10.0.0.1"))
}

func TestMemoryLimiterZeroLimitBlocksWithoutHits(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter()
	l.now = clock.now

	d, err := l.Allow(context.Background(), "login:1.2.3.4", 0, time.Minute)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, clock.t.Add(time.Minute), d.ResetAt)
}
