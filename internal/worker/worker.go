// Package worker runs the periodic maintenance jobs of the inventory service.
package worker

import (
	"context"
	"time"

	"example.com/backstage/services/inventory/config"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/ratelimit"
	"example.com/backstage/services/inventory/internal/repository"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Jobs holds what the scheduled jobs operate on
type Jobs struct {
	service service.Service
	limiter *ratelimit.MemoryLimiter // nil with the redis backend
	metrics *metrics.Collector
	log     *logrus.Logger
	now     func() time.Time
}

// NewJobs creates the job set. limiter may be nil.
func NewJobs(svc service.Service, limiter *ratelimit.MemoryLimiter, collector *metrics.Collector, log *logrus.Logger) *Jobs {
	return &Jobs{
		service: svc,
		limiter: limiter,
		metrics: collector,
		log:     log,
		now:     time.Now,
	}
}

// PurgeLimiter drops idle rate limiter keys and returns how many remain
func (j *Jobs) PurgeLimiter() int {
	if j.limiter == nil {
		return 0
	}
	remaining := j.limiter.Purge()
	j.metrics.SetGauge(metrics.GaugeLimiterKeys, float64(remaining))
	j.log.WithField("keys", remaining).Debug("Purged rate limiter keys")
	return remaining
}

// SweepExpiredPasswords logs the active users who must change their password
func (j *Jobs) SweepExpiredPasswords(ctx context.Context) error {
	users, err := j.service.ExpiredPasswords(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list expired passwords")
	}

	j.metrics.SetGauge(metrics.GaugeExpiredPasswd, float64(len(users)))
	for _, u := range users {
		j.log.WithFields(logrus.Fields{
			"user_id":              u.ID,
			"username":             u.Username,
			"last_password_change": u.LastPasswordChange,
		}).Info("Password expired")
	}
	return nil
}

// LogDailySummary logs yesterday's and today's totals per supermarket
func (j *Jobs) LogDailySummary(ctx context.Context) error {
	y, m, d := j.now().UTC().Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -1)

	summary, err := j.service.Summary(ctx, repository.ListFilter{From: &from, To: &to})
	if err != nil {
		return errors.Wrap(err, "failed to build summary")
	}

	for _, row := range summary.Rows {
		j.log.WithFields(logrus.Fields{
			"supermarket":      row.SupermarketName,
			"deliveries":       row.Deliveries,
			"delivered_amount": row.DeliveredAmount.StringFixed(2),
			"returns":          row.Returns,
			"returned_amount":  row.ReturnedAmount.StringFixed(2),
		}).Info("Supermarket summary")
	}
	j.log.WithFields(logrus.Fields{
		"from":             from.Format("2006-01-02"),
		"to":               to.Format("2006-01-02"),
		"supermarkets":     len(summary.Rows),
		"delivered_amount": summary.DeliveredAmount.StringFixed(2),
		"returned_amount":  summary.ReturnedAmount.StringFixed(2),
		"net_amount":       summary.NetAmount.StringFixed(2),
	}).Info("Daily summary")
	return nil
}

// RunLimiterPurge purges the in-memory limiter every interval and blocks until
// ctx is cancelled. It has to run in the process that serves HTTP traffic.
func RunLimiterPurge(ctx context.Context, interval time.Duration, jobs *Jobs) error {
	if jobs.limiter == nil {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { jobs.PurgeLimiter() }),
		gocron.WithName("limiter-purge"),
	); err != nil {
		return errors.Wrap(err, "failed to schedule limiter purge")
	}

	scheduler.Start()
	<-ctx.Done()
	return scheduler.Shutdown()
}

// Run schedules the password sweep and the daily summary and blocks until ctx is cancelled
func Run(ctx context.Context, cfg config.WorkerConfig, jobs *Jobs) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return errors.Wrap(err, "failed to create scheduler")
		}

		if _, err := scheduler.NewJob(
			gocron.DurationJob(cfg.PasswordSweepInterval),
			gocron.NewTask(func() {
				if err := jobs.SweepExpiredPasswords(ctx); err != nil {
					jobs.log.WithError(err).Error("Password expiry sweep failed")
				}
			}),
			gocron.WithName("password-sweep"),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		); err != nil {
			return errors.Wrap(err, "failed to schedule password sweep")
		}

		if _, err := scheduler.NewJob(
			gocron.DurationJob(cfg.SummaryInterval),
			gocron.NewTask(func() {
				if err := jobs.LogDailySummary(ctx); err != nil {
					jobs.log.WithError(err).Error("Daily summary failed")
				}
			}),
			gocron.WithName("daily-summary"),
		); err != nil {
			return errors.Wrap(err, "failed to schedule daily summary")
		}

		scheduler.Start()
		jobs.log.WithField("jobs", len(scheduler.Jobs())).Info("Worker scheduler started")

		<-ctx.Done()
		return scheduler.Shutdown()
	})

	return g.Wait()
}
