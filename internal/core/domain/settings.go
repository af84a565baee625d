package domain

import "time"

// DefaultDailyLimit is the admission quota used when none is configured.
const DefaultDailyLimit = 50

// DiscoverySettings holds admission quota configuration.
type DiscoverySettings struct {
	// DailyLimit is the maximum number of candidates admitted per calendar day.
	DailyLimit int `validate:"gte=0"`
}

// CacheSettings configures the external-call response cache.
type CacheSettings struct {
	TTL               time.Duration `validate:"gt=0"`
	RequestsPerSecond float64       `validate:"gt=0"`
	Burst             int           `validate:"gte=1"`
}

// LedgerSettings configures ledger retention and source freshness.
type LedgerSettings struct {
	RetentionDays     int           `validate:"gte=1"`
	SourceCheckWindow time.Duration `validate:"gt=0"`
}

// RotationSettings configures the query rotation planner.
type RotationSettings struct {
	HistorySize         int           `validate:"gte=1"`
	RepeatWindow        time.Duration `validate:"gt=0"`
	MaxQueries          int           `validate:"gte=1"`
	ExhaustionThreshold float64       `validate:"gte=0,lte=100"`
}

// TelemetrySettings configures trace export.
type TelemetrySettings struct {
	// OTLPEndpoint is the OTLP/HTTP collector host:port. Empty disables export.
	OTLPEndpoint string
}

// AppSettings holds all engine configuration.
type AppSettings struct {
	Discovery DiscoverySettings
	Cache     CacheSettings
	Ledger    LedgerSettings
	Rotation  RotationSettings
	Telemetry TelemetrySettings

	// ProfilePath overrides the fit profile file location.
	ProfilePath string

	// SchedulerEnabled runs housekeeping tasks in long-lived commands.
	SchedulerEnabled bool
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Discovery: DiscoverySettings{DailyLimit: DefaultDailyLimit},
		Cache: CacheSettings{
			TTL:               24 * time.Hour,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Ledger: LedgerSettings{
			RetentionDays:     DefaultRetentionDays,
			SourceCheckWindow: 24 * time.Hour,
		},
		Rotation: RotationSettings{
			HistorySize:         DefaultHistorySize,
			RepeatWindow:        DefaultRepeatWindow,
			MaxQueries:          DefaultMaxQueries,
			ExhaustionThreshold: DefaultExhaustionThreshold,
		},
		SchedulerEnabled: true,
	}
}
