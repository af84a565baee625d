package domain

// TodayStats is the admission picture for the current day.
type TodayStats struct {
	Admitted      int `json:"admitted"`
	Reserved      int `json:"reserved"`
	Remaining     int `json:"remaining_capacity"`
	DailyLimit    int `json:"daily_limit"`
	ExternalCalls int `json:"external_calls"`
}

// CacheStats describes the response cache.
type CacheStats struct {
	TotalEntries   int   `json:"total_entries"`
	ActiveEntries  int   `json:"active_entries"`
	ExpiredEntries int   `json:"expired_entries"`
	Hits           int64 `json:"hits"`
	Misses         int64 `json:"misses"`
}

// Lookups returns the total number of cache reads.
func (c CacheStats) Lookups() int64 {
	return c.Hits + c.Misses
}

// LedgerCounts sizes the ledger's company and source maps.
type LedgerCounts struct {
	CompaniesSeen     int `json:"companies_seen"`
	CompaniesFiltered int `json:"companies_filtered"`
	SourcesTracked    int `json:"sources_checked"`
}

// DiscoveryStats is the observability summary of the engine.
type DiscoveryStats struct {
	Today TodayStats   `json:"today"`
	Cache CacheStats   `json:"cache"`
	State LedgerCounts `json:"state"`
}

// LimitReached reports whether no admission capacity remains today.
func (s DiscoveryStats) LimitReached() bool {
	return s.Today.Remaining <= 0
}

// HousekeepingReport summarises a housekeeping pass.
type HousekeepingReport struct {
	DailyEntriesPruned int `json:"daily_entries_pruned"`
	CacheEntriesPurged int `json:"cache_entries_purged"`
}
