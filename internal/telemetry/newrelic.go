package telemetry

import (
	"time"

	"example.com/backstage/services/inventory/config"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// InitNewRelic returns nil when APM is disabled or no license key is set
func InitNewRelic(cfg config.NewRelicConfig, log *logrus.Logger) (*newrelic.Application, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create New Relic application")
	}

	if err := app.WaitForConnection(5 * time.Second); err != nil {
		// The agent keeps retrying in the background
		log.WithError(err).Warn("New Relic not connected yet")
	}
	return app, nil
}
