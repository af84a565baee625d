package domain

import "time"

// DateLayout is the calendar-date key format for daily counters.
const DateLayout = "2006-01-02"

// DefaultRetentionDays is how many days of daily counters are kept.
const DefaultRetentionDays = 30

// CompanyStatus records what the ledger knows about a company key.
type CompanyStatus string

const (
	// StatusUnknown means the key has never been recorded.
	StatusUnknown CompanyStatus = ""

	// StatusSeen means the company was admitted or observed as a duplicate.
	StatusSeen CompanyStatus = "seen"

	// StatusFiltered means the company scored below threshold.
	// A filtered key is never promoted to seen.
	StatusFiltered CompanyStatus = "filtered"
)

// IsValid returns true if the status is a recordable value.
func (s CompanyStatus) IsValid() bool {
	return s == StatusSeen || s == StatusFiltered
}

// SourceCheck is the per-source query bookkeeping.
type SourceCheck struct {
	// LastCheck is when any query last ran against the source.
	LastCheck time.Time `json:"last_check"`

	// Queries lists executed queries in first-run order without duplicates.
	Queries []string `json:"queries_executed"`
}

// HasQuery reports whether the query has been executed against the source.
func (c SourceCheck) HasQuery(query string) bool {
	for _, q := range c.Queries {
		if q == query {
			return true
		}
	}
	return false
}

// DailyStats are the additive counters for one calendar day.
type DailyStats struct {
	Admitted      int `json:"admitted" db:"admitted"`
	ExternalCalls int `json:"external_calls" db:"external_calls"`
}

// LedgerState is the durable memory of the engine.
// Seen and Filtered are ordered, duplicate-free sequences; they are
// converted to sets only in memory.
type LedgerState struct {
	Seen     []string               `json:"seen_companies"`
	Filtered []string               `json:"filtered_companies"`
	Sources  map[string]SourceCheck `json:"sources_checked"`
	Daily    map[string]DailyStats  `json:"daily_stats"`
}

// NewLedgerState returns an empty ledger state.
func NewLedgerState() *LedgerState {
	return &LedgerState{
		Sources: make(map[string]SourceCheck),
		Daily:   make(map[string]DailyStats),
	}
}

// DateKey returns the daily-counter key for t in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
