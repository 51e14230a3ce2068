package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/backstage/services/inventory/api"
	"example.com/backstage/services/inventory/api/handlers"
	"example.com/backstage/services/inventory/api/routes"
	"example.com/backstage/services/inventory/internal/telemetry"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Serve command flags
	disableNewRelic bool
	serverPort      int
	gracefulTimeout int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the inventory API server that handles the catalog, deliveries,
returns, reports and user accounts.

The server respects the configuration in config.yaml or specified via the --config flag.
It will gracefully shut down on receiving SIGINT or SIGTERM signals.`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&disableNewRelic, "disable-newrelic", false, "Disable New Relic monitoring")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "Server port (overrides config file)")
	serveCmd.Flags().IntVar(&gracefulTimeout, "graceful-timeout", 30, "Graceful shutdown timeout in seconds")
}

// startServer initializes and starts the API server
func startServer() {
	cfg, a := loadApp()
	defer a.Close()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwtsecret is not set (INVENTORY_AUTH_JWTSECRET), refusing to start")
	}
	if serverPort > 0 {
		cfg.Server.Port = serverPort
	}
	if disableNewRelic {
		cfg.NewRelic.Enabled = false
	}

	log.WithFields(logrus.Fields{
		"port":             cfg.Server.Port,
		"deletion_policy":  cfg.Catalog.DeletionPolicy,
		"ratelimit":        cfg.RateLimit.Backend,
		"newrelic_enabled": cfg.NewRelic.Enabled,
	}).Info("Initializing service components...")

	nrApp, err := telemetry.InitNewRelic(cfg.NewRelic, log)
	if err != nil {
		log.Warnf("Failed to initialize New Relic: %v", err)
	}

	checks := map[string]handlers.Pinger{
		"database": func(ctx context.Context) error {
			gormDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.Cache != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.Cache.Cmdable().Ping(ctx).Err()
		}
	}

	purgeCtx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	if a.StartLimiterPurge(purgeCtx) {
		log.WithField("interval", cfg.Worker.LimiterPurgeInterval).Info("Rate limiter purge started")
	}

	server := api.NewServer(cfg, log, nrApp, routes.Dependencies{
		Service:      a.Service,
		Limiter:      a.Limiter,
		RateLimits:   cfg.RateLimit,
		Metrics:      a.Metrics,
		HealthChecks: checks,
		Log:          log,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-stop
	log.Infof("Received signal %s, shutting down gracefully...", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(gracefulTimeout)*time.Second)
	defer cancel()

	log.Info("Shutting down HTTP server...")
	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("Server shutdown error: %v", err)
	}
	stopPurge()
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("Server shutdown complete")
}
