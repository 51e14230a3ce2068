package app

import (
	"context"
	"io"
	"testing"
	"time"

	"example.com/backstage/services/inventory/config"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/ratelimit"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestApp(limiter ratelimit.Limiter) *App {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &App{
		Config: &config.Config{
			Worker: config.WorkerConfig{LimiterPurgeInterval: 20 * time.Millisecond},
		},
		Log:     log,
		Metrics: metrics.NewCollector(),
		Limiter: limiter,
	}
}

func TestStartLimiterPurgeDrainsRouteLimiter(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	a := newTestApp(limiter)

	_, err := a.Limiter.Allow(context.Background(), "ratelimit:login:203.0.113.7", 5, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 1, limiter.Size())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.True(t, a.StartLimiterPurge(ctx))

	require.Eventually(t, func() bool {
		gauges := a.Metrics.Snapshot()["gauges"].(map[string]float64)
		keys, ok := gauges[metrics.GaugeLimiterKeys]
		return ok && keys == 0 && limiter.Size() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartLimiterPurgeSkipsRedisBackend(t *testing.T) {
	a := newTestApp(ratelimit.NewRedisLimiter(nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.False(t, a.StartLimiterPurge(ctx))
}
