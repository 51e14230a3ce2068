package cmd

import (
	"os"

	"example.com/backstage/services/inventory/config"
	"example.com/backstage/services/inventory/internal/app"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "inventory-service",
	Short: "Inventory delivery and return tracking service",
	Long: `Inventory service for recording product deliveries to supermarkets,
product returns, and the catalog of supermarkets, subchains and products.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if err := config.InitConfig(cfgFile); err != nil {
			log.Fatalf("Error initializing configuration: %v", err)
		}
	},
}

// Execute runs the command line. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

func setupLogging() {
	log.SetOutput(os.Stderr)

	if logFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.WithField("log_level", logLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

// loadApp loads the configuration and builds the application context
func loadApp() (*config.Config, *app.App) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	return cfg, a
}
