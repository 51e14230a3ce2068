package database

import (
	"fmt"
	"time"

	"example.com/backstage/services/inventory/config"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/models"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is an interface for database operations
type DB interface {
	DB() (*gorm.DB, error)
	Close() error
}

// GormDatabase implements the DB interface for GORM
type GormDatabase struct {
	db *gorm.DB
}

// Wrap exposes an already opened gorm handle as a DB
func Wrap(db *gorm.DB) DB {
	return &GormDatabase{db: db}
}

// Connect establishes a connection to the database. When collector is not nil,
// query counts and latencies are recorded through gorm callbacks.
func Connect(cfg config.DatabaseConfig, collector *metrics.Collector) (DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get DB instance")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if collector != nil {
		if err := RegisterMetricsHooks(db, collector); err != nil {
			return nil, err
		}
	}

	return &GormDatabase{db: db}, nil
}

// ConnectWithRetry retries Connect with exponential backoff
func ConnectWithRetry(cfg config.DatabaseConfig, collector *metrics.Collector, attempts int, onRetry func(attempt int, err error)) (DB, error) {
	var (
		db  DB
		err error
	)
	interval := time.Second
	for i := 0; i < attempts; i++ {
		db, err = Connect(cfg, collector)
		if err == nil {
			return db, nil
		}
		if onRetry != nil {
			onRetry(i+1, err)
		}
		if i < attempts-1 {
			time.Sleep(interval)
			interval *= 2
		}
	}
	return nil, errors.Wrapf(err, "failed to connect to database after %d attempts", attempts)
}

// DB returns the underlying gorm.DB instance
func (d *GormDatabase) DB() (*gorm.DB, error) {
	return d.db, nil
}

// Close closes the database connection
func (d *GormDatabase) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates all tables. Parents are migrated before the
// rows that reference them so the foreign keys can be created.
func AutoMigrate(db DB) error {
	gormDB, err := db.DB()
	if err != nil {
		return err
	}

	err = gormDB.AutoMigrate(
		&models.User{},
		&models.Supermarket{},
		&models.Subchain{},
		&models.Product{},
		&models.Delivery{},
		&models.DeliveryItem{},
		&models.Return{},
		&models.ReturnItem{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to migrate table structures")
	}
	return nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
