package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/leadscout/internal/core/domain"
)

func newTestSettings(store *memory.ConfigStore, env map[string]string) *SettingsService {
	service := NewSettingsService(store)
	service.getenv = func(key string) string { return env[key] }
	return service
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)

	settings, err := service.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("discovery.daily_limit", 20)
	_ = store.Set("cache.ttl_hours", 6)
	_ = store.Set("cache.requests_per_second", 2.5)
	_ = store.Set("ledger.retention_days", 14)
	_ = store.Set("rotation.repeat_window_days", 3)
	_ = store.Set("rotation.exhaustion_threshold", 65)
	_ = store.Set("scheduler.enabled", false)
	_ = store.Set("profile.path", "/tmp/profile.toml")

	settings, err := newTestSettings(store, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, 20, settings.Discovery.DailyLimit)
	assert.Equal(t, 6*time.Hour, settings.Cache.TTL)
	assert.InDelta(t, 2.5, settings.Cache.RequestsPerSecond, 1e-9)
	assert.Equal(t, 14, settings.Ledger.RetentionDays)
	assert.Equal(t, 72*time.Hour, settings.Rotation.RepeatWindow)
	assert.InDelta(t, 65.0, settings.Rotation.ExhaustionThreshold, 1e-9)
	assert.False(t, settings.SchedulerEnabled)
	assert.Equal(t, "/tmp/profile.toml", settings.ProfilePath)
}

func TestSettingsService_Get_ZeroDailyLimitIsKept(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("discovery.daily_limit", 0)

	settings, err := newTestSettings(store, nil).Get()
	require.NoError(t, err)
	assert.Equal(t, 0, settings.Discovery.DailyLimit)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("discovery.daily_limit", -4)
	_ = store.Set("cache.burst", 0)
	_ = store.Set("rotation.exhaustion_threshold", 140.0)
	_ = store.Set("rotation.max_queries", "many")

	settings, err := newTestSettings(store, nil).Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Discovery.DailyLimit, settings.Discovery.DailyLimit)
	assert.Equal(t, defaults.Cache.Burst, settings.Cache.Burst)
	assert.InDelta(t, defaults.Rotation.ExhaustionThreshold, settings.Rotation.ExhaustionThreshold, 1e-9)
	assert.Equal(t, defaults.Rotation.MaxQueries, settings.Rotation.MaxQueries)
}

func TestSettingsService_Get_EnvironmentOverrides(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("discovery.daily_limit", 20)
	_ = store.Set("telemetry.otlp_endpoint", "stored:4318")

	service := newTestSettings(store, map[string]string{
		EnvDailyLimit:   " 7 ",
		EnvOTLPEndpoint: "collector:4318",
	})

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, settings.Discovery.DailyLimit)
	assert.Equal(t, "collector:4318", settings.Telemetry.OTLPEndpoint)
}

func TestSettingsService_Get_InvalidEnvironmentLimit(t *testing.T) {
	for _, raw := range []string{"abc", "-1", "3.5"} {
		t.Run(raw, func(t *testing.T) {
			service := newTestSettings(memory.NewConfigStore(), map[string]string{EnvDailyLimit: raw})

			_, err := service.Get()
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Discovery.DailyLimit = 12
	settings.Cache.TTL = 48 * time.Hour
	settings.Rotation.RepeatWindow = 14 * 24 * time.Hour
	settings.Telemetry.OTLPEndpoint = "localhost:4318"
	settings.SchedulerEnabled = false

	require.NoError(t, service.Save(&settings))

	loaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *loaded)
}

func TestSettingsService_Save_RejectsInvalid(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Rotation.ExhaustionThreshold = 120

	err := service.Save(&settings)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, exists := store.Get("rotation.exhaustion_threshold")
	assert.False(t, exists)
}

func TestSettingsService_SetDailyLimit(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettings(store, nil)

	require.NoError(t, service.SetDailyLimit(30))
	assert.Equal(t, 30, store.GetInt("discovery.daily_limit"))

	require.ErrorIs(t, service.SetDailyLimit(-1), domain.ErrInvalidInput)
	assert.Equal(t, 30, store.GetInt("discovery.daily_limit"))
}

func TestSettingsService_Validate(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)
	require.NoError(t, service.Validate())

	bad := newTestSettings(memory.NewConfigStore(), map[string]string{EnvDailyLimit: "x"})
	require.Error(t, bad.Validate())
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := newTestSettings(memory.NewConfigStore(), nil)
	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingsService_GetSchedulerConfig(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("scheduler.enabled", false)
	_ = store.Set("scheduler.cache_purge.interval", "30m")
	_ = store.Set("scheduler.ledger_sync.enabled", false)
	_ = store.Set("scheduler.ledger_retention.interval", "not-a-duration")

	cfg := newTestSettings(store, nil).GetSchedulerConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.GetTaskConfig(domain.TaskIDCachePurge).Interval)
	assert.False(t, cfg.GetTaskConfig(domain.TaskIDLedgerSync).Enabled)
	assert.Equal(t, 24*time.Hour, cfg.GetTaskConfig(domain.TaskIDLedgerRetention).Interval)
}
