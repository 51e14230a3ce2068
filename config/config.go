package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Catalog    CatalogConfig
	Mail       MailConfig
	ServiceBus ServiceBusConfig
	NewRelic   NewRelicConfig
	Worker     WorkerConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port           int
	Mode           string // debug, release, test
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	LogLevel string
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds token and password policy settings
type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	PasswordMaxAge time.Duration
	BcryptCost     int
}

// RateLimitRule is a request budget for one scope
type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig holds the limiter backend and per-scope budgets
type RateLimitConfig struct {
	Backend              string // memory, redis
	Login                RateLimitRule
	Register             RateLimitRule
	PasswordReset        RateLimitRule
	PasswordResetConfirm RateLimitRule
}

// CatalogConfig holds catalog behaviour settings
type CatalogConfig struct {
	DeletionPolicy  string // cascade, restrict
	ProductCacheTTL time.Duration
}

// MailConfig holds the SMTP configuration used for password reset mails
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	ResetURL string
}

// ServiceBusConfig holds the Azure Service Bus configuration
type ServiceBusConfig struct {
	ConnectionString string
	QueueName        string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// WorkerConfig holds the background job schedule
type WorkerConfig struct {
	LimiterPurgeInterval  time.Duration
	PasswordSweepInterval time.Duration
	SummaryInterval       time.Duration
}

// InitConfig initializes the configuration using Viper
func InitConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/inventory-service")
		viper.SetConfigName("config")
	}

	// INVENTORY_SERVER_PORT overrides server.port
	viper.SetEnvPrefix("INVENTORY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("No config file found, using defaults and environment variables")
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("server.port", 8093)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.allowedorigins", []string{"*"})
	viper.SetDefault("server.readtimeout", 15*time.Second)
	viper.SetDefault("server.writetimeout", 30*time.Second)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "inventory")
	viper.SetDefault("database.password", "inventory")
	viper.SetDefault("database.dbname", "inventory_db")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.loglevel", "warn")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// No default jwt secret, serve refuses to start without one
	viper.SetDefault("auth.accesstokenttl", 12*time.Hour)
	viper.SetDefault("auth.resettokenttl", 600*time.Second)
	viper.SetDefault("auth.passwordmaxage", 90*24*time.Hour)
	viper.SetDefault("auth.bcryptcost", 12)

	viper.SetDefault("ratelimit.backend", "memory")
	viper.SetDefault("ratelimit.login.limit", 5)
	viper.SetDefault("ratelimit.login.window", 300*time.Second)
	viper.SetDefault("ratelimit.register.limit", 5)
	viper.SetDefault("ratelimit.register.window", time.Hour)
	viper.SetDefault("ratelimit.passwordreset.limit", 3)
	viper.SetDefault("ratelimit.passwordreset.window", time.Hour)
	viper.SetDefault("ratelimit.passwordresetconfirm.limit", 3)
	viper.SetDefault("ratelimit.passwordresetconfirm.window", time.Hour)

	viper.SetDefault("catalog.deletionpolicy", "cascade")
	viper.SetDefault("catalog.productcachettl", 5*time.Minute)

	viper.SetDefault("mail.port", 587)
	viper.SetDefault("mail.from", "no-reply@inventory.local")
	viper.SetDefault("mail.reseturl", "http://localhost:3000/reset-password")

	viper.SetDefault("servicebus.queuename", "inventory-events")

	viper.SetDefault("newrelic.appname", "Inventory Service Local")
	viper.SetDefault("newrelic.enabled", false)

	viper.SetDefault("worker.limiterpurgeinterval", time.Minute)
	viper.SetDefault("worker.passwordsweepinterval", 24*time.Hour)
	viper.SetDefault("worker.summaryinterval", time.Hour)
}

// Load loads the configuration
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           viper.GetInt("server.port"),
			Mode:           viper.GetString("server.mode"),
			AllowedOrigins: viper.GetStringSlice("server.allowedorigins"),
			ReadTimeout:    viper.GetDuration("server.readtimeout"),
			WriteTimeout:   viper.GetDuration("server.writetimeout"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("database.host"),
			Port:     viper.GetInt("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.dbname"),
			SSLMode:  viper.GetString("database.sslmode"),
			LogLevel: viper.GetString("database.loglevel"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetInt("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			JWTSecret:      viper.GetString("auth.jwtsecret"),
			AccessTokenTTL: viper.GetDuration("auth.accesstokenttl"),
			ResetTokenTTL:  viper.GetDuration("auth.resettokenttl"),
			PasswordMaxAge: viper.GetDuration("auth.passwordmaxage"),
			BcryptCost:     viper.GetInt("auth.bcryptcost"),
		},
		RateLimit: RateLimitConfig{
			Backend:              viper.GetString("ratelimit.backend"),
			Login:                loadRule("ratelimit.login"),
			Register:             loadRule("ratelimit.register"),
			PasswordReset:        loadRule("ratelimit.passwordreset"),
			PasswordResetConfirm: loadRule("ratelimit.passwordresetconfirm"),
		},
		Catalog: CatalogConfig{
			DeletionPolicy:  viper.GetString("catalog.deletionpolicy"),
			ProductCacheTTL: viper.GetDuration("catalog.productcachettl"),
		},
		Mail: MailConfig{
			Host:     viper.GetString("mail.host"),
			Port:     viper.GetInt("mail.port"),
			Username: viper.GetString("mail.username"),
			Password: viper.GetString("mail.password"),
			From:     viper.GetString("mail.from"),
			ResetURL: viper.GetString("mail.reseturl"),
		},
		ServiceBus: ServiceBusConfig{
			ConnectionString: viper.GetString("servicebus.connectionstring"),
			QueueName:        viper.GetString("servicebus.queuename"),
		},
		NewRelic: NewRelicConfig{
			AppName:    viper.GetString("newrelic.appname"),
			LicenseKey: viper.GetString("newrelic.licensekey"),
			Enabled:    viper.GetBool("newrelic.enabled"),
		},
		Worker: WorkerConfig{
			LimiterPurgeInterval:  viper.GetDuration("worker.limiterpurgeinterval"),
			PasswordSweepInterval: viper.GetDuration("worker.passwordsweepinterval"),
			SummaryInterval:       viper.GetDuration("worker.summaryinterval"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	switch c.Catalog.DeletionPolicy {
	case "cascade", "restrict":
	default:
		return fmt.Errorf("invalid catalog.deletionpolicy %q (want cascade or restrict)", c.Catalog.DeletionPolicy)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid ratelimit.backend %q (want memory or redis)", c.RateLimit.Backend)
	}
	if c.RateLimit.Backend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("ratelimit.backend is redis but redis.enabled is false")
	}
	for name, rule := range map[string]RateLimitRule{
		"login":                c.RateLimit.Login,
		"register":             c.RateLimit.Register,
		"passwordreset":        c.RateLimit.PasswordReset,
		"passwordresetconfirm": c.RateLimit.PasswordResetConfirm,
	} {
		if rule.Limit <= 0 {
			return fmt.Errorf("ratelimit.%s.limit must be positive, got %d", name, rule.Limit)
		}
		if rule.Window <= 0 {
			return fmt.Errorf("ratelimit.%s.window must be positive, got %s", name, rule.Window)
		}
	}
	if c.RateLimit.Backend == "memory" && c.Worker.LimiterPurgeInterval <= 0 {
		return fmt.Errorf("worker.limiterpurgeinterval must be positive, got %s", c.Worker.LimiterPurgeInterval)
	}
	return nil
}

func loadRule(prefix string) RateLimitRule {
	return RateLimitRule{
		Limit:  viper.GetInt(prefix + ".limit"),
		Window: viper.GetDuration(prefix + ".window"),
	}
}
