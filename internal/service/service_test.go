package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"example.com/backstage/services/inventory/internal/auth"
	"example.com/backstage/services/inventory/internal/cache"
	"example.com/backstage/services/inventory/internal/messaging"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/repository"
	"example.com/backstage/services/inventory/internal/repository/mocks"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 8, 15, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingMailer struct {
	to    []string
	token string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, _ string, token string) error {
	m.to = append(m.to, to)
	m.token = token
	return nil
}

type memCache struct {
	data map[string]string
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *memCache) Cmdable() redis.Cmdable { return nil }
func (c *memCache) Close() error           { return nil }

type fixture struct {
	svc       *service
	repo      *mocks.Repository
	publisher *recordingPublisher
	mailer    *recordingMailer
	metrics   *metrics.Collector
	tokens    *auth.TokenManager
}

func newFixture(t *testing.T, policy DeletionPolicy) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		repo:      new(mocks.Repository),
		publisher: &recordingPublisher{},
		mailer:    &recordingMailer{},
		metrics:   metrics.NewCollector(),
		tokens:    auth.NewTokenManager("test-secret", time.Hour, 10*time.Minute),
	}
	svc, err := NewService(ServiceConfig{
		Repository:     f.repo,
		Publisher:      f.publisher,
		Mailer:         f.mailer,
		Tokens:         f.tokens,
		Metrics:        f.metrics,
		Logger:         log,
		DeletionPolicy: policy,
		PasswordMaxAge: 90 * 24 * time.Hour,
		BcryptCost:     4,
		Now:            func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	f.svc = svc.(*service)
	return f
}

func (f *fixture) withAcmeCatalog() {
	f.repo.On("FindSupermarketByID", mock.Anything, uint(1)).
		Return(&models.Supermarket{Model: models.Model{ID: 1}, Name: "Acme", Address: "1 Main St"}, nil)
	f.repo.On("FindProductsByIDs", mock.Anything, mock.Anything).Return([]*models.Product{
		{Model: models.Model{ID: 1}, Name: "Widget", Price: decimal.RequireFromString("2.50"), Weight: decimal.RequireFromString("0.5")},
	}, nil)
}

func TestNewServiceRejectsUnknownPolicy(t *testing.T) {
	_, err := NewService(ServiceConfig{
		Repository:     new(mocks.Repository),
		Publisher:      &recordingPublisher{},
		Mailer:         &recordingMailer{},
		Tokens:         auth.NewTokenManager("s", time.Hour, time.Minute),
		DeletionPolicy: "archive",
	})
	require.Error(t, err)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	require.EqualError(t, err, "repository is required")
}

func TestReferenceErrorMessages(t *testing.T) {
	require.Equal(t, "cannot delete supermarket 1: referenced by delivery #12 dated 2024-01-10",
		(&ReferenceError{Entity: "supermarket", ID: 1, Blocker: "delivery #12 dated 2024-01-10"}).Error())
	require.Equal(t, "cannot delete product 4: referenced by 2 deliveries and 1 returns",
		(&ReferenceError{Entity: "product", ID: 4, DeliveryCount: 2, ReturnCount: 1}).Error())
}

func TestPassThrough(t *testing.T) {
	require.True(t, passThrough(repository.ErrNotFound))
	require.True(t, passThrough(&ReferenceError{}))
	require.False(t, passThrough(repository.ErrDuplicateKey))
}
