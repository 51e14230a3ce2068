package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	setDefaults()

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8093, cfg.Server.Port)
	require.Equal(t, "cascade", cfg.Catalog.DeletionPolicy)
	require.Equal(t, "memory", cfg.RateLimit.Backend)
	require.Equal(t, 5, cfg.RateLimit.Login.Limit)
	require.Equal(t, 300*time.Second, cfg.RateLimit.Login.Window)
	require.Equal(t, 3, cfg.RateLimit.PasswordResetConfirm.Limit)
	require.Equal(t, 600*time.Second, cfg.Auth.ResetTokenTTL)
	require.Equal(t, 90*24*time.Hour, cfg.Auth.PasswordMaxAge)
}

func TestLoadRejectsUnknownDeletionPolicy(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("catalog.deletionpolicy", "orphan")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "deletionpolicy")
}

func TestLoadRedisBackendRequiresRedis(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("ratelimit.backend", "redis")

	_, err := Load()
	require.Error(t, err)

	viper.Set("redis.enabled", true)
	_, err = Load()
	require.NoError(t, err)
}

func TestLoadRejectsNonPositiveRateLimits(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("ratelimit.login.limit", 0)

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "ratelimit.login.limit")

	viper.Set("ratelimit.login.limit", 5)
	viper.Set("ratelimit.passwordreset.window", "0s")

	_, err = Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "ratelimit.passwordreset.window")
}
