package worker

import (
	"context"
	"io"
	"testing"
	"time"

	"example.com/backstage/services/inventory/config"
	"example.com/backstage/services/inventory/internal/auth"
	"example.com/backstage/services/inventory/internal/mailer"
	"example.com/backstage/services/inventory/internal/messaging"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/ratelimit"
	"example.com/backstage/services/inventory/internal/repository"
	"example.com/backstage/services/inventory/internal/repository/mocks"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 8, 3, 0, 0, 0, time.UTC)

func newJobs(t *testing.T, limiter *ratelimit.MemoryLimiter) (*Jobs, *mocks.Repository, *metrics.Collector) {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)
	publisher, err := messaging.NewPublisher(config.ServiceBusConfig{}, "inventory-worker", log)
	require.NoError(t, err)

	repo := new(mocks.Repository)
	collector := metrics.NewCollector()
	svc, err := service.NewService(service.ServiceConfig{
		Repository:     repo,
		Publisher:      publisher,
		Mailer:         mailer.New(config.MailConfig{}, log),
		Tokens:         auth.NewTokenManager("s", time.Hour, time.Minute),
		Metrics:        collector,
		Logger:         log,
		PasswordMaxAge: 90 * 24 * time.Hour,
		Now:            func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	jobs := NewJobs(svc, limiter, collector, log)
	jobs.now = func() time.Time { return fixedNow }
	return jobs, repo, collector
}

func TestSweepExpiredPasswordsSetsGauge(t *testing.T) {
	jobs, repo, collector := newJobs(t, nil)
	cutoff := fixedNow.Add(-90 * 24 * time.Hour)
	repo.On("ListUsersWithPasswordBefore", mock.Anything, cutoff).Return([]*models.User{
		{Model: models.Model{ID: 1}, Username: "alice"},
		{Model: models.Model{ID: 2}, Username: "bob"},
	}, nil)

	require.NoError(t, jobs.SweepExpiredPasswords(context.Background()))

	gauges := collector.Snapshot()["gauges"].(map[string]float64)
	require.Equal(t, float64(2), gauges[metrics.GaugeExpiredPasswd])
}

func TestSweepExpiredPasswordsSurfacesErrors(t *testing.T) {
	jobs, repo, _ := newJobs(t, nil)
	repo.On("ListUsersWithPasswordBefore", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	require.Error(t, jobs.SweepExpiredPasswords(context.Background()))
}

func TestLogDailySummaryCoversPreviousDay(t *testing.T) {
	jobs, repo, _ := newJobs(t, nil)
	from := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	inRange := mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.From != nil && f.From.Equal(from) && f.To != nil && f.To.Equal(to)
	})
	repo.On("SummarizeDeliveries", mock.Anything, inRange).Return([]repository.SupermarketTotal{
		{SupermarketID: 1, SupermarketName: "Acme", Count: 2, Quantity: 5, Amount: "12.50"},
	}, nil)
	repo.On("SummarizeReturns", mock.Anything, inRange).Return([]repository.SupermarketTotal{}, nil)

	require.NoError(t, jobs.LogDailySummary(context.Background()))
	repo.AssertExpectations(t)
}

func TestPurgeLimiterWithoutMemoryBackend(t *testing.T) {
	jobs, _, _ := newJobs(t, nil)
	require.Equal(t, 0, jobs.PurgeLimiter())
}

func TestPurgeLimiterReportsRemainingKeys(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	_, err := limiter.Allow(context.Background(), "ratelimit:login:203.0.113.7", 5, time.Hour)
	require.NoError(t, err)
	jobs, _, collector := newJobs(t, limiter)

	require.Equal(t, 1, jobs.PurgeLimiter())

	gauges := collector.Snapshot()["gauges"].(map[string]float64)
	require.Equal(t, float64(1), gauges[metrics.GaugeLimiterKeys])
}

func TestRunStopsWithContext(t *testing.T) {
	jobs, repo, _ := newJobs(t, ratelimit.NewMemoryLimiter())
	repo.On("ListUsersWithPasswordBefore", mock.Anything, mock.Anything).Return([]*models.User{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, config.WorkerConfig{
			LimiterPurgeInterval:  time.Hour,
			PasswordSweepInterval: time.Hour,
			SummaryInterval:       time.Hour,
		}, jobs)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunLimiterPurgeWithoutMemoryBackend(t *testing.T) {
	jobs, _, _ := newJobs(t, nil)
	require.NoError(t, RunLimiterPurge(context.Background(), time.Minute, jobs))
}

func TestRunLimiterPurgeDropsIdleKeys(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	_, err := limiter.Allow(context.Background(), "ratelimit:register:203.0.113.7", 5, 10*time.Millisecond)
	require.NoError(t, err)
	jobs, _, _ := newJobs(t, limiter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunLimiterPurge(ctx, 20*time.Millisecond, jobs) }()

	require.Eventually(t, func() bool { return limiter.Size() == 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
