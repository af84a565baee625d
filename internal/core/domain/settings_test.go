package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAppSettings(t *testing.T) {
	settings := DefaultAppSettings()

	assert.Equal(t, 50, settings.Discovery.DailyLimit)
	assert.Equal(t, 24*time.Hour, settings.Cache.TTL)
	assert.Equal(t, 30, settings.Ledger.RetentionDays)
	assert.Equal(t, 24*time.Hour, settings.Ledger.SourceCheckWindow)
	assert.Equal(t, 100, settings.Rotation.HistorySize)
	assert.Equal(t, 7*24*time.Hour, settings.Rotation.RepeatWindow)
	assert.Equal(t, 5, settings.Rotation.MaxQueries)
	assert.Equal(t, 80.0, settings.Rotation.ExhaustionThreshold)
	assert.Empty(t, settings.Telemetry.OTLPEndpoint)
	assert.True(t, settings.SchedulerEnabled)
}
