package cmd

import (
	"context"

	"example.com/backstage/services/inventory/config"
	"example.com/backstage/services/inventory/internal/app"
	"example.com/backstage/services/inventory/internal/database"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var seedSample bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Creates or updates the users, catalog, delivery and return tables.
With --seed an empty catalog gets a sample supermarket, subchain and product.
Accounts are created with "user create".`,
	Run: func(cmd *cobra.Command, args []string) {
		runMigration(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&seedSample, "seed", false, "Add sample catalog data when the catalog is empty")
}

func runMigration(ctx context.Context) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.ConnectWithRetry(cfg.Database, nil, app.DBConnectAttempts, func(attempt int, err error) {
		log.WithError(err).WithField("retry_attempt", attempt).Warn("Database not reachable yet")
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.WithFields(logrus.Fields{
		"host":     cfg.Database.Host,
		"database": cfg.Database.DBName,
	}).Info("Database schema is up to date")

	if !seedSample {
		return
	}
	seeded, err := repository.SeedSampleCatalog(ctx, repository.NewRepository(db))
	if err != nil {
		log.Fatalf("Failed to seed sample data: %v", err)
	}
	if seeded {
		log.Info("Sample catalog created")
	} else {
		log.Info("Catalog already contains data, nothing seeded")
	}
}
