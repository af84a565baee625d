package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
	"github.com/custodia-labs/leadscout/internal/logger"
	"github.com/custodia-labs/leadscout/internal/normalisers"
)

// Ledger is the discovery ledger: which companies have been seen or
// filtered, which queries ran against which sources, and daily counters.
//
// Membership reads are served from an in-memory snapshot. Every write holds
// the writer lock and is durable in the store before it returns; the
// snapshot is only updated after the store accepts the write.
type Ledger struct {
	store         driven.LedgerStore
	now           func() time.Time
	retentionDays int

	mu       sync.RWMutex
	seen     map[string]struct{}
	filtered map[string]struct{}
	sources  map[string]domain.SourceCheck
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLedgerClock replaces the wall clock, for tests.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithRetentionDays sets how many days of daily counters are kept.
func WithRetentionDays(days int) LedgerOption {
	return func(l *Ledger) {
		if days > 0 {
			l.retentionDays = days
		}
	}
}

// NewLedger loads the ledger from store. A store that cannot be read yields
// an empty ledger: losing dedup history only means duplicates get
// re-filtered, which is better than refusing to run.
func NewLedger(ctx context.Context, store driven.LedgerStore, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:         store,
		now:           time.Now,
		retentionDays: domain.DefaultRetentionDays,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.reset(domain.NewLedgerState())
	if err := l.Sync(ctx); err != nil {
		logger.Warn("Ledger: starting empty, load failed: %v", err)
	}
	return l
}

// Sync replaces the in-memory snapshot with the durable ledger.
// On failure the current snapshot is kept.
func (l *Ledger) Sync(ctx context.Context) error {
	if l.store == nil {
		return domain.ErrLedgerUnavailable
	}

	state, err := l.store.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.reset(state)
	return nil
}

// reset installs state as the snapshot. Caller holds mu or owns l.
func (l *Ledger) reset(state *domain.LedgerState) {
	l.seen = make(map[string]struct{}, len(state.Seen))
	l.filtered = make(map[string]struct{}, len(state.Filtered))
	l.sources = make(map[string]domain.SourceCheck, len(state.Sources))

	// A key recorded as filtered stays filtered even if a bad document
	// lists it in both sets.
	for _, key := range state.Filtered {
		l.filtered[key] = struct{}{}
	}
	for _, key := range state.Seen {
		if _, ok := l.filtered[key]; !ok {
			l.seen[key] = struct{}{}
		}
	}
	for name, check := range state.Sources {
		l.sources[name] = check
	}
}

// Status returns what the ledger knows about a normalised company key.
func (l *Ledger) Status(key string) domain.CompanyStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.filtered[key]; ok {
		return domain.StatusFiltered
	}
	if _, ok := l.seen[key]; ok {
		return domain.StatusSeen
	}
	return domain.StatusUnknown
}

// IsSeen reports whether the company name was admitted or seen as a duplicate.
func (l *Ledger) IsSeen(name string) bool {
	return l.Status(normalisers.Name(name)) == domain.StatusSeen
}

// IsFiltered reports whether the company name was rejected for poor fit.
func (l *Ledger) IsFiltered(name string) bool {
	return l.Status(normalisers.Name(name)) == domain.StatusFiltered
}

// MarkSeen records the company as seen. It is idempotent, and refuses
// with ErrCompanyFiltered for a company that was previously filtered.
func (l *Ledger) MarkSeen(ctx context.Context, name string) error {
	err := l.ClaimSeen(ctx, name)
	if errors.Is(err, domain.ErrAlreadySeen) {
		return nil
	}
	return err
}

// ClaimSeen marks the company as seen only if no one has recorded it
// yet. It fails with ErrAlreadySeen when the key was already seen, even
// if this process's snapshot had not caught up, and with
// ErrCompanyFiltered when it was filtered.
func (l *Ledger) ClaimSeen(ctx context.Context, name string) error {
	status, inserted, err := l.mark(ctx, normalisers.Name(name), domain.StatusSeen)
	if err != nil {
		return err
	}
	switch {
	case status == domain.StatusFiltered:
		return fmt.Errorf("mark seen %q: %w", name, domain.ErrCompanyFiltered)
	case !inserted:
		return fmt.Errorf("mark seen %q: %w", name, domain.ErrAlreadySeen)
	}
	return nil
}

// MarkFiltered records the company as filtered. It is a no-op for a
// company already recorded either way.
func (l *Ledger) MarkFiltered(ctx context.Context, name string) error {
	_, _, err := l.mark(ctx, normalisers.Name(name), domain.StatusFiltered)
	return err
}

// mark writes a company status through to the store. It returns the
// effective status and whether this call recorded it.
func (l *Ledger) mark(ctx context.Context, key string, status domain.CompanyStatus) (domain.CompanyStatus, bool, error) {
	if key == "" {
		return domain.StatusUnknown, false, domain.ErrMissingName
	}
	if l.store == nil {
		return domain.StatusUnknown, false, domain.ErrLedgerUnavailable
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.filtered[key]; ok {
		return domain.StatusFiltered, false, nil
	}
	if _, ok := l.seen[key]; ok {
		return domain.StatusSeen, false, nil
	}

	effective, inserted, err := l.store.MarkCompany(ctx, key, status, l.now())
	if err != nil {
		return domain.StatusUnknown, false, fmt.Errorf("mark %s %q: %w", status, key, err)
	}

	switch effective {
	case domain.StatusFiltered:
		l.filtered[key] = struct{}{}
	case domain.StatusSeen:
		l.seen[key] = struct{}{}
	}
	return effective, inserted, nil
}

// ShouldCheckSource reports whether a query should run against a source:
// the pair has never run, or the source was last checked longer than
// window ago.
func (l *Ledger) ShouldCheckSource(source, query string, window time.Duration) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	check, ok := l.sources[source]
	if !ok || !check.HasQuery(query) {
		return true
	}
	return l.now().Sub(check.LastCheck) > window
}

// MarkSourceChecked records that query ran against source now.
func (l *Ledger) MarkSourceChecked(ctx context.Context, source, query string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return fmt.Errorf("mark source checked: %w: empty source", domain.ErrInvalidInput)
	}
	if l.store == nil {
		return domain.ErrLedgerUnavailable
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if err := l.store.RecordSourceCheck(ctx, source, query, now); err != nil {
		return fmt.Errorf("record source check %s: %w", source, err)
	}

	check := l.sources[source]
	check.LastCheck = now
	if !check.HasQuery(query) {
		check.Queries = append(append([]string(nil), check.Queries...), query)
	}
	l.sources[source] = check
	return nil
}

// SourceCheck returns the bookkeeping for a source.
func (l *Ledger) SourceCheck(source string) (domain.SourceCheck, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	check, ok := l.sources[source]
	return check, ok
}

// Today returns the current date key.
func (l *Ledger) Today() string {
	return domain.DateKey(l.now())
}

// DailyStats returns the counters for a date key, zero if absent.
// An empty date means today.
func (l *Ledger) DailyStats(ctx context.Context, date string) (domain.DailyStats, error) {
	if l.store == nil {
		return domain.DailyStats{}, domain.ErrLedgerUnavailable
	}
	if date == "" {
		date = l.Today()
	}
	stats, err := l.store.GetDaily(ctx, date)
	if err != nil {
		return domain.DailyStats{}, fmt.Errorf("daily stats %s: %w", date, err)
	}
	return stats, nil
}

// IncrementAdmitted adds n to today's admitted count. When limit is not
// driven.UncappedAdmissions the increment is refused with
// ErrDailyLimitExceeded if it would pass the limit.
func (l *Ledger) IncrementAdmitted(ctx context.Context, n, limit int) (domain.DailyStats, error) {
	return l.increment(ctx, n, 0, limit)
}

// IncrementCalls adds n to today's external-call count.
func (l *Ledger) IncrementCalls(ctx context.Context, n int) (domain.DailyStats, error) {
	return l.increment(ctx, 0, n, driven.UncappedAdmissions)
}

func (l *Ledger) increment(ctx context.Context, admitted, calls, limit int) (domain.DailyStats, error) {
	if admitted < 0 || calls < 0 {
		return domain.DailyStats{}, fmt.Errorf("increment daily: %w: negative count", domain.ErrInvalidInput)
	}
	if l.store == nil {
		return domain.DailyStats{}, domain.ErrLedgerUnavailable
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.Today()
	stats, err := l.store.IncrementDaily(ctx, today, admitted, calls, limit)
	if err != nil {
		return domain.DailyStats{}, fmt.Errorf("increment daily %s: %w", today, err)
	}
	return stats, nil
}

// RecordCall counts one external call for today. It is the response
// cache's call recorder.
func (l *Ledger) RecordCall(ctx context.Context) error {
	_, err := l.IncrementCalls(ctx, 1)
	return err
}

// RemainingCapacity returns how many more candidates may be admitted
// today under limit.
func (l *Ledger) RemainingCapacity(ctx context.Context, limit int) (int, error) {
	stats, err := l.DailyStats(ctx, "")
	if err != nil {
		return 0, err
	}
	return max(0, limit-stats.Admitted), nil
}

// CanAdmit reports whether n more candidates fit under today's limit.
func (l *Ledger) CanAdmit(ctx context.Context, n, limit int) (bool, error) {
	remaining, err := l.RemainingCapacity(ctx, limit)
	if err != nil {
		return false, err
	}
	return n <= remaining, nil
}

// PruneDailyStats drops counters older than the retention window.
// Today's counters are never touched.
func (l *Ledger) PruneDailyStats(ctx context.Context) (int, error) {
	if l.store == nil {
		return 0, domain.ErrLedgerUnavailable
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := domain.DateKey(l.now().AddDate(0, 0, -l.retentionDays))
	n, err := l.store.PruneDaily(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune daily stats: %w", err)
	}
	if n > 0 {
		logger.Debug("Ledger: pruned %d daily entries before %s", n, cutoff)
	}
	return n, nil
}

// Counts sizes the ledger snapshot.
func (l *Ledger) Counts() domain.LedgerCounts {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return domain.LedgerCounts{
		CompaniesSeen:     len(l.seen),
		CompaniesFiltered: len(l.filtered),
		SourcesTracked:    len(l.sources),
	}
}
