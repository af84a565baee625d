package services

import (
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
	"github.com/custodia-labs/leadscout/internal/logger"
)

// Exhaustion smoothing: new = keep*current + (1-keep)*duplicateRate.
const (
	exhaustionKeep   = 0.7
	exhaustionWeight = 0.3
	exhaustionDecay  = 0.5

	// fallbackAttemptsPerQuery bounds random composition when the
	// rotation pass comes up short.
	fallbackAttemptsPerQuery = 8

	recentQueriesShown = 10
)

// Planner chooses the next search queries and tracks source exhaustion.
type Planner struct {
	store driven.RotationStore
	vocab domain.Vocabulary
	cfg   domain.RotationSettings
	now   func() time.Time
	rng   *rand.Rand

	mu    sync.Mutex
	state *domain.RotationState
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithPlannerClock replaces the wall clock, for tests.
func WithPlannerClock(now func() time.Time) PlannerOption {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// WithRandSource seeds fallback query composition.
func WithRandSource(src rand.Source) PlannerOption {
	return func(p *Planner) {
		if src != nil {
			p.rng = rand.New(src)
		}
	}
}

// WithVocabulary replaces the built-in search vocabulary.
func WithVocabulary(v domain.Vocabulary) PlannerOption {
	return func(p *Planner) {
		p.vocab = v
	}
}

// NewPlanner loads rotation state from store. An unreadable store yields
// an empty state.
func NewPlanner(ctx context.Context, store driven.RotationStore, cfg domain.RotationSettings, opts ...PlannerOption) *Planner {
	p := &Planner{
		store: store,
		vocab: domain.DefaultVocabulary(),
		cfg:   withRotationDefaults(cfg),
		now:   time.Now,
		state: domain.NewRotationState(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(uint64(p.now().UnixNano()), 0x9e3779b97f4a7c15))
	}

	if err := p.Sync(ctx); err != nil {
		logger.Warn("Planner: starting empty, load failed: %v", err)
	}
	return p
}

func withRotationDefaults(cfg domain.RotationSettings) domain.RotationSettings {
	def := domain.DefaultAppSettings().Rotation
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.RepeatWindow <= 0 {
		cfg.RepeatWindow = def.RepeatWindow
	}
	if cfg.MaxQueries <= 0 {
		cfg.MaxQueries = def.MaxQueries
	}
	if cfg.ExhaustionThreshold <= 0 {
		cfg.ExhaustionThreshold = def.ExhaustionThreshold
	}
	return cfg
}

// Sync reloads rotation state from the store.
func (p *Planner) Sync(ctx context.Context) error {
	state, err := p.store.LoadRotation(ctx)
	if err != nil {
		return fmt.Errorf("load rotation: %w", err)
	}
	if state.Sources == nil {
		state.Sources = make(map[string]domain.SourceHealth)
	}
	if state.IndustryCursors == nil {
		state.IndustryCursors = make(map[string]int)
	}
	if state.LocationCursors == nil {
		state.LocationCursors = make(map[string]int)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
	return nil
}

// NextQueries emits up to req.MaxQueries queries not used within the
// repeat window and records them in the rotation history.
func (p *Planner) NextQueries(ctx context.Context, req domain.PlanRequest) ([]domain.QueryRecord, error) {
	maxQueries := req.MaxQueries
	if maxQueries <= 0 {
		maxQueries = p.cfg.MaxQueries
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	industryUse, locationUse := p.recentUsage(now)
	industries := p.candidateIndustries(req.Industry, industryUse)
	locations := p.candidateLocations(req.Location)

	var (
		out             []domain.QueryRecord
		emitted         = make(map[string]struct{})
		industryCursors = make(map[string]int)
		locationCursors = make(map[string]int)
	)
	accept := func(query, industry, location string) bool {
		key := strings.ToLower(query)
		if _, dup := emitted[key]; dup || p.usedRecently(query, now) {
			return false
		}
		emitted[key] = struct{}{}
		out = append(out, domain.QueryRecord{Query: query, Industry: industry, Location: location, UsedAt: now})
		locationUse[location]++
		locationCursors[location]++
		return true
	}

	for _, industry := range industries[:min(domain.MaxIndustriesPerPlan, len(industries))] {
		keywords := p.keywords(industry)
		pos := p.state.IndustryCursors[industry] % len(keywords)
		keyword := keywords[pos]
		industryCursors[industry] = (pos + 1) % len(keywords)

		ordered := orderLocations(locations, locationUse, p.state.LocationCursors, locationCursors)
		for _, loc := range ordered[:min(domain.MaxLocationsPerIndustry, len(ordered))] {
			if !accept(loc+" "+keyword, industry, loc) {
				continue
			}
			if len(out) >= maxQueries {
				break
			}
		}
		if len(out) >= maxQueries {
			break
		}
	}

	if len(out) < maxQueries && len(industries) > 0 && len(locations) > 0 && len(p.vocab.Modifiers) > 0 {
		for attempts := maxQueries * fallbackAttemptsPerQuery; attempts > 0 && len(out) < maxQueries; attempts-- {
			industry := industries[p.rng.IntN(len(industries))]
			keywords := p.keywords(industry)
			keyword := keywords[p.rng.IntN(len(keywords))]
			loc := locations[p.rng.IntN(len(locations))]
			modifier := p.vocab.Modifiers[p.rng.IntN(len(p.vocab.Modifiers))]
			accept(modifier+" "+keyword+" "+loc, industry, loc)
		}
	}

	persistedLoc := make(map[string]int, len(locationCursors))
	for loc, n := range locationCursors {
		persistedLoc[loc] = p.state.LocationCursors[loc] + n
	}
	cursors := map[string]map[string]int{
		domain.CursorIndustry: industryCursors,
		domain.CursorLocation: persistedLoc,
	}
	if err := p.store.RecordPlan(ctx, out, cursors, p.cfg.HistorySize); err != nil {
		return nil, fmt.Errorf("record plan: %w", err)
	}

	p.state.History = append(p.state.History, out...)
	if len(p.state.History) > p.cfg.HistorySize {
		p.state.History = slices.Clone(p.state.History[len(p.state.History)-p.cfg.HistorySize:])
	}
	maps.Copy(p.state.IndustryCursors, industryCursors)
	maps.Copy(p.state.LocationCursors, persistedLoc)

	logger.Debug("Planner: emitted %d queries (%d industries, %d locations considered)",
		len(out), len(industries), len(locations))
	return out, nil
}

// DiversifiedParameters plans the next queries and returns them with the
// industries and locations they cover and the recommended sources.
func (p *Planner) DiversifiedParameters(ctx context.Context, req domain.PlanRequest) (*domain.QueryPlan, error) {
	records, err := p.NextQueries(ctx, req)
	if err != nil {
		return nil, err
	}

	plan := &domain.QueryPlan{
		Queries:            make([]string, 0, len(records)),
		Industries:         []string{},
		Locations:          []string{},
		RecommendedSources: p.RecommendedSources(domain.DefaultRecommendedSources),
	}
	for _, r := range records {
		plan.Queries = append(plan.Queries, r.Query)
		if r.Industry != "" && !slices.Contains(plan.Industries, r.Industry) {
			plan.Industries = append(plan.Industries, r.Industry)
		}
		if r.Location != "" && !slices.Contains(plan.Locations, r.Location) {
			plan.Locations = append(plan.Locations, r.Location)
		}
	}
	if len(plan.Industries) == 0 && req.Industry != "" {
		plan.Industries = []string{req.Industry}
	}
	if len(plan.Locations) == 0 && req.Location != "" {
		plan.Locations = []string{req.Location}
	}
	return plan, nil
}

// MarkSourceResults folds a run's duplicate rate into the source's
// recorded exhaustion and accumulates its totals. Idle decay is not
// applied first; it only gates ShouldUseSource. The update is applied to
// the stored record, so reports from other processes are not lost.
func (p *Planner) MarkSourceResults(ctx context.Context, report domain.SourceReport) (domain.SourceHealth, error) {
	if err := validateStruct(report); err != nil {
		return domain.SourceHealth{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	duplicateRate := 100.0
	if report.TotalFound > 0 {
		duplicateRate = float64(report.Duplicates) / float64(report.TotalFound) * 100
	}

	health, err := p.store.UpdateSourceHealth(ctx, report.Source, func(h domain.SourceHealth) domain.SourceHealth {
		h.Exhaustion = clampExhaustion(exhaustionKeep*h.Exhaustion + exhaustionWeight*duplicateRate)
		h.LastCheckedAt = now
		h.DecayedAt = time.Time{}
		h.Runs++
		h.TotalFound += report.TotalFound
		h.Duplicates += report.Duplicates
		h.Admitted += report.Admitted
		return h
	})
	if err != nil {
		return domain.SourceHealth{}, fmt.Errorf("save source health %s: %w", report.Source, err)
	}
	p.state.Sources[report.Source] = health
	return health, nil
}

// ShouldUseSource reports whether a source is below the exhaustion
// threshold. A source idle for longer than the decay period has its
// exhaustion halved, once per period, before the comparison.
func (p *Planner) ShouldUseSource(ctx context.Context, source string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	health, ok := p.state.Sources[source]
	if !ok {
		return true, nil
	}

	now := p.now()
	if p.decayDue(health, now) {
		// Re-check against the stored record; another process may have
		// reported or decayed since the snapshot was loaded.
		updated, err := p.store.UpdateSourceHealth(ctx, source, func(h domain.SourceHealth) domain.SourceHealth {
			if p.decayDue(h, now) {
				h.Exhaustion = clampExhaustion(h.Exhaustion * exhaustionDecay)
				h.DecayedAt = now
			}
			return h
		})
		if err != nil {
			return false, fmt.Errorf("save source health %s: %w", source, err)
		}
		p.state.Sources[source] = updated
		health = updated
		logger.Debug("Planner: decayed %s exhaustion to %.1f", source, health.Exhaustion)
	}
	return health.Exhaustion < p.cfg.ExhaustionThreshold, nil
}

// RecommendedSources returns up to n usable sources, least exhausted
// first. When every source is over the threshold the single least
// exhausted one is returned so a run always has somewhere to look.
func (p *Planner) RecommendedSources(n int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	type ranked struct {
		name       string
		exhaustion float64
	}
	all := make([]ranked, 0, len(p.vocab.Sources))
	for _, name := range p.vocab.Sources {
		all = append(all, ranked{name, p.effectiveExhaustion(p.state.Sources[name], now)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].exhaustion < all[j].exhaustion })

	out := make([]string, 0, n)
	for _, r := range all {
		if len(out) == n {
			break
		}
		if r.exhaustion < p.cfg.ExhaustionThreshold {
			out = append(out, r.name)
		}
	}
	if len(out) == 0 && len(all) > 0 && n > 0 {
		out = append(out, all[0].name)
	}
	return out
}

// Stats summarises the rotation state.
func (p *Planner) Stats() domain.RotationStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	history := p.state.History
	recent := make([]string, 0, recentQueriesShown)
	for _, r := range history[max(0, len(history)-recentQueriesShown):] {
		recent = append(recent, r.Query)
	}
	return domain.RotationStats{
		TotalQueries:    len(history),
		RecentQueries:   recent,
		Sources:         maps.Clone(p.state.Sources),
		IndustryCursors: maps.Clone(p.state.IndustryCursors),
	}
}

// SourceHealth returns a source's health with pending decay applied.
func (p *Planner) SourceHealth(source string) (domain.SourceHealth, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	health, ok := p.state.Sources[source]
	if ok {
		health.Exhaustion = p.effectiveExhaustion(health, p.now())
	}
	return health, ok
}

// decayDue reports whether a full decay period has passed since the
// source was last checked or last decayed.
func (p *Planner) decayDue(h domain.SourceHealth, now time.Time) bool {
	if h.LastCheckedAt.IsZero() {
		return false
	}
	since := h.LastCheckedAt
	if h.DecayedAt.After(since) {
		since = h.DecayedAt
	}
	return now.Sub(since) > domain.ExhaustionDecayAfter
}

func (p *Planner) effectiveExhaustion(h domain.SourceHealth, now time.Time) float64 {
	if p.decayDue(h, now) {
		return clampExhaustion(h.Exhaustion * exhaustionDecay)
	}
	return h.Exhaustion
}

// usedRecently reports whether query was emitted within the repeat window.
func (p *Planner) usedRecently(query string, now time.Time) bool {
	cutoff := now.Add(-p.cfg.RepeatWindow)
	for i := len(p.state.History) - 1; i >= 0; i-- {
		r := p.state.History[i]
		if r.UsedAt.After(cutoff) && r.Matches(query) {
			return true
		}
	}
	return false
}

// recentUsage counts history entries per industry and location within
// the repeat window.
func (p *Planner) recentUsage(now time.Time) (industries, locations map[string]int) {
	industries = make(map[string]int)
	locations = make(map[string]int)
	cutoff := now.Add(-p.cfg.RepeatWindow)
	for _, r := range p.state.History {
		if !r.UsedAt.After(cutoff) {
			continue
		}
		if r.Industry != "" {
			industries[r.Industry]++
		}
		if r.Location != "" {
			locations[r.Location]++
		}
	}
	return industries, locations
}

// candidateIndustries returns the explicit industry, or the vocabulary
// ordered least recently used first.
func (p *Planner) candidateIndustries(explicit string, use map[string]int) []string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		for _, ik := range p.vocab.Industries {
			if matchText(ik.Industry) == matchText(explicit) {
				return []string{ik.Industry}
			}
		}
		return []string{strings.ToLower(explicit)}
	}
	industries := make([]string, 0, len(p.vocab.Industries))
	for _, ik := range p.vocab.Industries {
		industries = append(industries, ik.Industry)
	}
	sort.SliceStable(industries, func(i, j int) bool {
		return use[industries[i]] < use[industries[j]]
	})
	return industries
}

// candidateLocations returns vocabulary locations matching the explicit
// filter, the filter itself when nothing matches, or the whole vocabulary.
func (p *Planner) candidateLocations(explicit string) []string {
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		return slices.Clone(p.vocab.Locations)
	}
	needle := strings.ToLower(explicit)
	var matched []string
	for _, loc := range p.vocab.Locations {
		if strings.Contains(strings.ToLower(loc), needle) {
			matched = append(matched, loc)
		}
	}
	if len(matched) == 0 {
		return []string{explicit}
	}
	return matched
}

// keywords returns an industry's keyword list, or the industry itself
// when it is not in the vocabulary.
func (p *Planner) keywords(industry string) []string {
	if kw := p.vocab.Keywords(industry); len(kw) > 0 {
		return kw
	}
	return []string{industry}
}

// orderLocations sorts locations by recent use, then lifetime emissions
// (including those made earlier in this plan), keeping vocabulary order
// for ties.
func orderLocations(locations []string, recent, lifetime, pending map[string]int) []string {
	ordered := slices.Clone(locations)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if recent[a] != recent[b] {
			return recent[a] < recent[b]
		}
		return lifetime[a]+pending[a] < lifetime[b]+pending[b]
	})
	return ordered
}

func clampExhaustion(v float64) float64 {
	return max(0, min(v, domain.MaxExhaustion))
}
