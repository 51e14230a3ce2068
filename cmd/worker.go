package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/services/inventory/internal/worker"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker that flags expired passwords and logs
the daily delivery and return summary. Idle rate limiter keys are purged by
the serve process that owns them.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, a := loadApp()
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := worker.NewJobs(a.Service, nil, a.Metrics, log)

	log.WithFields(logrus.Fields{
		"password_sweep_interval": cfg.Worker.PasswordSweepInterval,
		"summary_interval":        cfg.Worker.SummaryInterval,
	}).Info("Starting worker")

	if err := worker.Run(ctx, cfg.Worker, jobs); err != nil {
		log.WithError(err).Error("Worker error")
		return err
	}

	log.Info("Worker shutting down gracefully")
	return nil
}
