package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
	"github.com/custodia-labs/leadscout/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyDailyLimit          = "discovery.daily_limit"
	keyCacheTTLHours       = "cache.ttl_hours"
	keyCacheRPS            = "cache.requests_per_second"
	keyCacheBurst          = "cache.burst"
	keyRetentionDays       = "ledger.retention_days"
	keySourceCheckHours    = "ledger.source_check_hours"
	keyHistorySize         = "rotation.history_size"
	keyRepeatWindowDays    = "rotation.repeat_window_days"
	keyMaxQueries          = "rotation.max_queries"
	keyExhaustionThreshold = "rotation.exhaustion_threshold"
	keySchedulerEnabled    = "scheduler.enabled"
	keyOTLPEndpoint        = "telemetry.otlp_endpoint"
	keyProfilePath         = "profile.path"
)

// Environment variables that override stored settings.
const (
	EnvDailyLimit   = "DAILY_LEAD_LIMIT"
	EnvOTLPEndpoint = "LEADSCOUT_OTLP_ENDPOINT"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Missing or invalid stored
// values fall back to defaults; environment variables win over both.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Discovery: domain.DiscoverySettings{
			DailyLimit: s.getNonNegativeInt(keyDailyLimit, defaults.Discovery.DailyLimit),
		},
		Cache: domain.CacheSettings{
			TTL:               s.getHours(keyCacheTTLHours, defaults.Cache.TTL),
			RequestsPerSecond: s.getPositiveFloat(keyCacheRPS, defaults.Cache.RequestsPerSecond),
			Burst:             s.getPositiveInt(keyCacheBurst, defaults.Cache.Burst),
		},
		Ledger: domain.LedgerSettings{
			RetentionDays:     s.getPositiveInt(keyRetentionDays, defaults.Ledger.RetentionDays),
			SourceCheckWindow: s.getHours(keySourceCheckHours, defaults.Ledger.SourceCheckWindow),
		},
		Rotation: domain.RotationSettings{
			HistorySize:         s.getPositiveInt(keyHistorySize, defaults.Rotation.HistorySize),
			RepeatWindow:        s.getDays(keyRepeatWindowDays, defaults.Rotation.RepeatWindow),
			MaxQueries:          s.getPositiveInt(keyMaxQueries, defaults.Rotation.MaxQueries),
			ExhaustionThreshold: s.getThreshold(defaults.Rotation.ExhaustionThreshold),
		},
		Telemetry: domain.TelemetrySettings{
			OTLPEndpoint: s.configStore.GetString(keyOTLPEndpoint),
		},
		ProfilePath:      s.configStore.GetString(keyProfilePath),
		SchedulerEnabled: s.getBool(keySchedulerEnabled, defaults.SchedulerEnabled),
	}

	if raw := strings.TrimSpace(s.getenv(EnvDailyLimit)); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return nil, fmt.Errorf("%w: %s=%q", domain.ErrInvalidInput, EnvDailyLimit, raw)
		}
		settings.Discovery.DailyLimit = limit
	}
	if endpoint := strings.TrimSpace(s.getenv(EnvOTLPEndpoint)); endpoint != "" {
		settings.Telemetry.OTLPEndpoint = endpoint
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := validateStruct(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyDailyLimit, settings.Discovery.DailyLimit},
		{keyCacheTTLHours, int(settings.Cache.TTL / time.Hour)},
		{keyCacheRPS, settings.Cache.RequestsPerSecond},
		{keyCacheBurst, settings.Cache.Burst},
		{keyRetentionDays, settings.Ledger.RetentionDays},
		{keySourceCheckHours, int(settings.Ledger.SourceCheckWindow / time.Hour)},
		{keyHistorySize, settings.Rotation.HistorySize},
		{keyRepeatWindowDays, int(settings.Rotation.RepeatWindow / (24 * time.Hour))},
		{keyMaxQueries, settings.Rotation.MaxQueries},
		{keyExhaustionThreshold, settings.Rotation.ExhaustionThreshold},
		{keySchedulerEnabled, settings.SchedulerEnabled},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Telemetry.OTLPEndpoint != "" {
		if err := s.configStore.Set(keyOTLPEndpoint, settings.Telemetry.OTLPEndpoint); err != nil {
			return fmt.Errorf("save %s: %w", keyOTLPEndpoint, err)
		}
	}
	if settings.ProfilePath != "" {
		if err := s.configStore.Set(keyProfilePath, settings.ProfilePath); err != nil {
			return fmt.Errorf("save %s: %w", keyProfilePath, err)
		}
	}

	return nil
}

// SetDailyLimit updates the admission quota.
func (s *SettingsService) SetDailyLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: daily limit must be >= 0, got %d", domain.ErrInvalidInput, limit)
	}
	if err := s.configStore.Set(keyDailyLimit, limit); err != nil {
		return fmt.Errorf("save %s: %w", keyDailyLimit, err)
	}
	return nil
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return validateStruct(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	// Master switch
	if _, exists := s.configStore.Get(keySchedulerEnabled); exists {
		defaults.Enabled = s.configStore.GetBool(keySchedulerEnabled)
	}

	// Map from task ID to config key (underscore version for TOML)
	taskKeys := map[string]string{
		domain.TaskIDLedgerRetention: "ledger_retention",
		domain.TaskIDCachePurge:      "cache_purge",
		domain.TaskIDLedgerSync:      "ledger_sync",
	}

	for taskID, configKey := range taskKeys {
		prefix := "scheduler." + configKey + "."

		taskCfg := defaults.TaskConfigs[taskID]

		if _, exists := s.configStore.Get(prefix + "enabled"); exists {
			taskCfg.Enabled = s.configStore.GetBool(prefix + "enabled")
		}

		// Duration string like "45m", "1h"
		if interval := s.configStore.GetString(prefix + "interval"); interval != "" {
			if d, err := time.ParseDuration(interval); err == nil && d > 0 {
				taskCfg.Interval = d
			}
		}

		defaults.TaskConfigs[taskID] = taskCfg
	}

	return defaults
}

func (s *SettingsService) getNonNegativeInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetInt(key)
	if val < 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getPositiveInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getPositiveFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getThreshold(defaultVal float64) float64 {
	if _, exists := s.configStore.Get(keyExhaustionThreshold); !exists {
		return defaultVal
	}
	val := s.configStore.GetFloat(keyExhaustionThreshold)
	if val < 0 || val > 100 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getHours(key string, defaultVal time.Duration) time.Duration {
	if hours := s.configStore.GetInt(key); hours > 0 {
		return time.Duration(hours) * time.Hour
	}
	return defaultVal
}

func (s *SettingsService) getDays(key string, defaultVal time.Duration) time.Duration {
	if days := s.configStore.GetInt(key); days > 0 {
		return time.Duration(days) * 24 * time.Hour
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}
