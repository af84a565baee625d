package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

// FetchFunc performs the external call behind a cached lookup.
type FetchFunc func(ctx context.Context) ([]byte, error)

// DiscoveryService is the engine's public surface.
type DiscoveryService interface {
	// Prioritize turns a raw candidate batch into an admitted, ranked,
	// quota-bounded batch. existing holds previously stored records used for
	// cross-run duplicate comparison. The returned run ID holds a capacity
	// reservation until RecordAdmitted or Release is called.
	Prioritize(ctx context.Context, candidates, existing []domain.Candidate, opts domain.PrioritizeOptions) (*domain.PrioritizeResult, error)

	// RecordAdmitted commits the number of records the caller actually
	// persisted for a run and releases its reservation.
	RecordAdmitted(ctx context.Context, runID string, persisted int) (domain.TodayStats, error)

	// Release drops a run's reservation without admitting anything.
	Release(runID string) error

	// Today returns the admission picture for the current day.
	Today(ctx context.Context) (domain.TodayStats, error)

	// PlanQueries returns a diversified parameter bundle for the next run.
	PlanQueries(ctx context.Context, req domain.PlanRequest) (*domain.QueryPlan, error)

	// MarkSourceResults folds a run's duplicate rate into source exhaustion.
	MarkSourceResults(ctx context.Context, report domain.SourceReport) (domain.SourceHealth, error)

	// ShouldUseSource reports whether a source is below the exhaustion threshold
	// after inactivity decay.
	ShouldUseSource(ctx context.Context, source string) (bool, error)

	// ShouldCheckSource reports whether a (source, query) pair is due.
	ShouldCheckSource(source, query string, window time.Duration) bool

	// MarkSourceChecked records an executed query against a source.
	MarkSourceChecked(ctx context.Context, source, query string) error

	// Lookup is a cached, rate-limited external call.
	Lookup(ctx context.Context, service string, params map[string]any, ttl time.Duration, fetch FetchFunc) ([]byte, error)

	// Stats returns the observability summary.
	Stats(ctx context.Context) (domain.DiscoveryStats, error)

	// RotationStats summarises the rotation document.
	RotationStats(ctx context.Context) (domain.RotationStats, error)

	// Housekeep prunes old daily counters and purges expired cache entries.
	Housekeep(ctx context.Context) (domain.HousekeepingReport, error)

	// Explain itemises a candidate's fit score without recording anything.
	Explain(c domain.Candidate) domain.ScoreBreakdown

	// Sync reloads the ledger and rotation snapshots from durable storage.
	Sync(ctx context.Context) error
}
