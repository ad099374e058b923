package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/zclstore/internal/conf"
	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/logger"
)

func TestInitSentryDisabledIsNoop(t *testing.T) {
	errors.SetTelemetryReporter(nil)

	require.NoError(t, InitSentry(&conf.TelemetrySettings{}, "test", logger.Discard()))
	require.NoError(t, InitSentry(nil, "test", logger.Discard()))

	assert.Nil(t, errors.GetTelemetryReporter())
	assert.False(t, sentryInitialized.Load())
	Close()
}

func TestInitSentryRequiresDSN(t *testing.T) {
	settings := &conf.TelemetrySettings{Sentry: conf.SentrySettings{Enabled: true}}

	err := InitSentry(settings, "test", logger.Discard())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.Nil(t, errors.GetTelemetryReporter())
}

func TestApplyPrivacyFilters(t *testing.T) {
	event := sentry.NewEvent()
	event.User = sentry.User{ID: "someone", IPAddress: "10.0.0.1"}
	event.ServerName = "build-host"
	event.Contexts = map[string]sentry.Context{
		"os":          {"name": "linux"},
		"runtime":     {"name": "go"},
		"application": {"name": "zclstore"},
	}
	event.Extra = map[string]any{"component": "ingest", "path": "/home/someone/defs"}
	event.Tags = map[string]string{"hostname": "build-host", "category": "database"}

	got := applyPrivacyFilters(event)

	assert.Empty(t, got.User.ID)
	assert.Empty(t, got.User.IPAddress)
	assert.Empty(t, got.ServerName)
	assert.NotContains(t, got.Contexts, "os")
	assert.NotContains(t, got.Contexts, "runtime")
	assert.Contains(t, got.Contexts, "application")
	assert.Equal(t, map[string]any{"component": "ingest"}, got.Extra)
	assert.Equal(t, map[string]string{"category": "database"}, got.Tags)
}
