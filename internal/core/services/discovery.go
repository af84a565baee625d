package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driving"
	"github.com/custodia-labs/leadscout/internal/logger"
	"github.com/custodia-labs/leadscout/internal/normalisers"
)

// Ensure Engine implements the interface.
var _ driving.DiscoveryService = (*Engine)(nil)

const tracerName = "github.com/custodia-labs/leadscout/internal/core/services"

// reservation holds admission capacity for a run until the caller reports
// how many records it persisted.
type reservation struct {
	date  string
	count int
}

// Engine is the lead discovery prioritisation engine. It owns the ledger,
// planner, scorer and response cache and is safe for concurrent use.
//
// Admission is serialised by admitMu: a run holds it from the capacity
// check through truncation, and its admitted count stays reserved until
// RecordAdmitted or Release. Two overlapping runs can therefore never
// admit past the daily limit between them.
type Engine struct {
	ledger   *Ledger
	planner  *Planner
	scorer   *FitScorer
	cache    *ResponseCache
	settings domain.AppSettings
	tracer   trace.Tracer
	newRunID func() string

	admitMu  sync.Mutex
	reserved map[string]reservation
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRunIDs replaces the run ID generator, for tests.
func WithRunIDs(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// NewEngine creates the engine from its components.
func NewEngine(
	ledger *Ledger,
	planner *Planner,
	scorer *FitScorer,
	cache *ResponseCache,
	settings domain.AppSettings,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		ledger:   ledger,
		planner:  planner,
		scorer:   scorer,
		cache:    cache,
		settings: settings,
		tracer:   otel.Tracer(tracerName),
		newRunID: uuid.NewString,
		reserved: make(map[string]reservation),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// dedupSets are the normalised identifiers of already-stored records.
type dedupSets struct {
	names    map[string]struct{}
	websites map[string]struct{}
	phones   map[string]struct{}
}

func newDedupSets(existing []domain.Candidate) *dedupSets {
	d := &dedupSets{
		names:    make(map[string]struct{}, len(existing)),
		websites: make(map[string]struct{}, len(existing)),
		phones:   make(map[string]struct{}, len(existing)),
	}
	for _, r := range existing {
		addKey(d.names, normalisers.Name(r.CompanyName))
		addKey(d.websites, normalisers.Website(r.Website))
		addKey(d.phones, normalisers.Phone(r.Phone))
	}
	return d
}

// claim checks name, website and phone in that order. A contact key is
// registered only once the checks before it have passed.
func (d *dedupSets) claim(name, website, phone string) bool {
	if hasKey(d.names, name) {
		return false
	}
	if hasKey(d.websites, website) {
		return false
	}
	addKey(d.websites, website)
	if hasKey(d.phones, phone) {
		return false
	}
	addKey(d.phones, phone)
	return true
}

func addKey(set map[string]struct{}, key string) {
	if key != "" {
		set[key] = struct{}{}
	}
}

func hasKey(set map[string]struct{}, key string) bool {
	if key == "" {
		return false
	}
	_, ok := set[key]
	return ok
}

// Prioritize deduplicates, scores, filters, ranks and quota-truncates a
// candidate batch. Each ledger mutation is committed as it happens, so a
// cancelled run returns what it admitted so far with Aborted set.
func (e *Engine) Prioritize(
	ctx context.Context,
	candidates, existing []domain.Candidate,
	opts domain.PrioritizeOptions,
) (*domain.PrioritizeResult, error) {
	ctx, span := e.tracer.Start(ctx, "discovery.prioritize",
		trace.WithAttributes(
			attribute.Int("candidates", len(candidates)),
			attribute.Int("existing", len(existing)),
		))
	defer span.End()

	result := &domain.PrioritizeResult{
		Discovered: len(candidates),
		Admitted:   []domain.ScoredCandidate{},
	}

	e.admitMu.Lock()
	defer e.admitMu.Unlock()

	logger.Section("Prioritize")
	defer logger.Since("prioritize", time.Now())
	remaining, err := e.remainingLocked(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if remaining <= 0 {
		// Quota exhaustion is not poor fit: nothing is scored or filtered.
		logger.Info("Daily limit reached, skipping %d candidates", len(candidates))
		result.DailyLimitReached = true
		span.SetAttributes(attribute.Bool("daily_limit_reached", true))
		return result, nil
	}

	sets := newDedupSets(existing)
	kept := make([]domain.ScoredCandidate, 0, len(candidates))

	for _, c := range candidates {
		if ctx.Err() != nil {
			logger.Warn("Prioritize cancelled after %d kept", len(kept))
			result.Aborted = true
			break
		}

		if !c.HasName() {
			result.Malformed++
			continue
		}

		name := normalisers.Name(c.CompanyName)
		website := normalisers.Website(c.Website)
		phone := normalisers.Phone(c.Phone)

		if !sets.claim(name, website, phone) {
			logger.Debug("Duplicate of stored record: %q", c.CompanyName)
			result.Duplicates++
			continue
		}

		if status := e.ledger.Status(name); status != domain.StatusUnknown {
			logger.Debug("Ledger already has %q as %s", c.CompanyName, status)
			result.Duplicates++
			continue
		}

		score := e.scorer.Score(c)
		if !e.scorer.Qualifies(score) {
			if err := e.ledger.MarkFiltered(ctx, c.CompanyName); err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, fmt.Errorf("prioritize %q: %w", c.CompanyName, err)
			}
			logger.Debug("Filtered %q at %.1f", c.CompanyName, score)
			result.Filtered++
			continue
		}

		if err := e.ledger.ClaimSeen(ctx, c.CompanyName); err != nil {
			if errors.Is(err, domain.ErrCompanyFiltered) || errors.Is(err, domain.ErrAlreadySeen) {
				// Recorded by another process since the snapshot was loaded.
				logger.Debug("Store already has %q", c.CompanyName)
				result.Duplicates++
				continue
			}
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("prioritize %q: %w", c.CompanyName, err)
		}
		addKey(sets.names, name)
		kept = append(kept, domain.ScoredCandidate{Candidate: c, FitScore: score, Key: name})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].FitScore > kept[j].FitScore
	})

	limit := remaining
	if opts.MaxCandidates > 0 && opts.MaxCandidates < limit {
		limit = opts.MaxCandidates
	}
	if len(kept) > limit {
		result.Truncated = len(kept) - limit
		kept = kept[:limit]
	}
	result.Admitted = kept

	if len(kept) > 0 {
		result.RunID = e.newRunID()
		e.reserved[result.RunID] = reservation{date: e.ledger.Today(), count: len(kept)}
	}
	result.Remaining = remaining - len(kept)

	logger.Info("Admitted %d of %d (dup=%d filtered=%d malformed=%d truncated=%d)",
		len(kept), result.Discovered, result.Duplicates, result.Filtered, result.Malformed, result.Truncated)
	span.SetAttributes(
		attribute.Int("admitted", len(kept)),
		attribute.Int("duplicates", result.Duplicates),
		attribute.Int("filtered", result.Filtered),
		attribute.Bool("aborted", result.Aborted),
	)
	return result, nil
}

// remainingLocked returns today's capacity net of outstanding
// reservations. Caller holds admitMu.
func (e *Engine) remainingLocked(ctx context.Context) (int, error) {
	stats, err := e.ledger.DailyStats(ctx, "")
	if err != nil {
		return 0, err
	}
	return max(0, e.settings.Discovery.DailyLimit-stats.Admitted-e.reservedLocked()), nil
}

// reservedLocked sums today's outstanding reservations. Caller holds admitMu.
func (e *Engine) reservedLocked() int {
	today := e.ledger.Today()
	n := 0
	for _, r := range e.reserved {
		if r.date == today {
			n += r.count
		}
	}
	return n
}

// RecordAdmitted commits the number of records persisted for a run. The
// increment is capped at the daily limit in the store; if it cannot be
// committed the error is returned and the reservation is kept so the
// caller may retry.
func (e *Engine) RecordAdmitted(ctx context.Context, runID string, persisted int) (domain.TodayStats, error) {
	e.admitMu.Lock()
	defer e.admitMu.Unlock()

	res, ok := e.reserved[runID]
	if !ok {
		return domain.TodayStats{}, fmt.Errorf("record admitted %s: %w", runID, domain.ErrUnknownRun)
	}
	if persisted < 0 || persisted > res.count {
		return domain.TodayStats{}, fmt.Errorf("record admitted %s: %w: persisted %d of %d reserved",
			runID, domain.ErrInvalidInput, persisted, res.count)
	}

	if persisted > 0 {
		if _, err := e.ledger.IncrementAdmitted(ctx, persisted, e.settings.Discovery.DailyLimit); err != nil {
			logger.Error("Failed to commit %d admissions for run %s: %v", persisted, runID, err)
			return domain.TodayStats{}, fmt.Errorf("record admitted %s: %w", runID, err)
		}
	}
	delete(e.reserved, runID)

	return e.todayLocked(ctx)
}

// Release drops a run's reservation without admitting anything.
func (e *Engine) Release(runID string) error {
	e.admitMu.Lock()
	defer e.admitMu.Unlock()

	if _, ok := e.reserved[runID]; !ok {
		return fmt.Errorf("release %s: %w", runID, domain.ErrUnknownRun)
	}
	delete(e.reserved, runID)
	return nil
}

// Today returns today's admission picture.
func (e *Engine) Today(ctx context.Context) (domain.TodayStats, error) {
	e.admitMu.Lock()
	defer e.admitMu.Unlock()
	return e.todayLocked(ctx)
}

func (e *Engine) todayLocked(ctx context.Context) (domain.TodayStats, error) {
	stats, err := e.ledger.DailyStats(ctx, "")
	if err != nil {
		return domain.TodayStats{}, err
	}
	reserved := e.reservedLocked()
	limit := e.settings.Discovery.DailyLimit
	return domain.TodayStats{
		Admitted:      stats.Admitted,
		Reserved:      reserved,
		Remaining:     max(0, limit-stats.Admitted-reserved),
		DailyLimit:    limit,
		ExternalCalls: stats.ExternalCalls,
	}, nil
}

// PlanQueries returns a diversified parameter bundle for the next run.
func (e *Engine) PlanQueries(ctx context.Context, req domain.PlanRequest) (*domain.QueryPlan, error) {
	ctx, span := e.tracer.Start(ctx, "discovery.plan_queries",
		trace.WithAttributes(
			attribute.String("industry", req.Industry),
			attribute.String("location", req.Location),
		))
	defer span.End()

	plan, err := e.planner.DiversifiedParameters(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("queries", len(plan.Queries)))
	return plan, nil
}

// MarkSourceResults folds a run's duplicate rate into source exhaustion.
func (e *Engine) MarkSourceResults(ctx context.Context, report domain.SourceReport) (domain.SourceHealth, error) {
	return e.planner.MarkSourceResults(ctx, report)
}

// ShouldUseSource reports whether a source is usable after decay.
func (e *Engine) ShouldUseSource(ctx context.Context, source string) (bool, error) {
	return e.planner.ShouldUseSource(ctx, source)
}

// ShouldCheckSource reports whether a (source, query) pair is due. A
// non-positive window uses the configured one.
func (e *Engine) ShouldCheckSource(source, query string, window time.Duration) bool {
	if window <= 0 {
		window = e.settings.Ledger.SourceCheckWindow
	}
	return e.ledger.ShouldCheckSource(source, query, window)
}

// MarkSourceChecked records an executed query against a source.
func (e *Engine) MarkSourceChecked(ctx context.Context, source, query string) error {
	return e.ledger.MarkSourceChecked(ctx, source, query)
}

// Lookup is a cached, rate-limited external call.
func (e *Engine) Lookup(
	ctx context.Context,
	service string,
	params map[string]any,
	ttl time.Duration,
	fetch driving.FetchFunc,
) ([]byte, error) {
	ctx, span := e.tracer.Start(ctx, "discovery.lookup", trace.WithAttributes(attribute.String("service", service)))
	defer span.End()

	payload, err := e.cache.Fetch(ctx, service, params, ttl, fetch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return payload, err
}

// Stats returns the observability summary.
func (e *Engine) Stats(ctx context.Context) (domain.DiscoveryStats, error) {
	today, err := e.Today(ctx)
	if err != nil {
		return domain.DiscoveryStats{}, err
	}
	return domain.DiscoveryStats{
		Today: today,
		Cache: e.cache.Stats(),
		State: e.ledger.Counts(),
	}, nil
}

// RotationStats summarises the rotation state.
func (e *Engine) RotationStats(_ context.Context) (domain.RotationStats, error) {
	return e.planner.Stats(), nil
}

// Housekeep prunes old daily counters and purges expired cache entries.
func (e *Engine) Housekeep(ctx context.Context) (domain.HousekeepingReport, error) {
	pruned, err := e.PruneLedger(ctx)
	if err != nil {
		return domain.HousekeepingReport{}, err
	}
	return domain.HousekeepingReport{
		DailyEntriesPruned: pruned,
		CacheEntriesPurged: e.PurgeCache(),
	}, nil
}

// PruneLedger drops daily counters outside the retention window.
func (e *Engine) PruneLedger(ctx context.Context) (int, error) {
	return e.ledger.PruneDailyStats(ctx)
}

// PurgeCache removes expired cache entries.
func (e *Engine) PurgeCache() int {
	return e.cache.ClearExpired()
}

// Sync reloads the ledger and rotation snapshots from durable storage.
func (e *Engine) Sync(ctx context.Context) error {
	return errors.Join(e.ledger.Sync(ctx), e.planner.Sync(ctx))
}

// Explain returns the itemised fit score for a candidate.
func (e *Engine) Explain(c domain.Candidate) domain.ScoreBreakdown {
	return e.scorer.Explain(c)
}
