package driven

import (
	"context"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

// RotationStore persists the query rotation document.
type RotationStore interface {
	// LoadRotation reads the full rotation document.
	LoadRotation(ctx context.Context) (*domain.RotationState, error)

	// RecordPlan atomically appends emitted queries, keeping only the newest
	// keep records, and writes the given cursors.
	RecordPlan(ctx context.Context, records []domain.QueryRecord, cursors map[string]map[string]int, keep int) error

	// UpdateSourceHealth reads the stored health for source (zero if none),
	// passes it to apply and stores the result, all under the store's write
	// lock so concurrent writers each see the other's update. The stored
	// record is returned.
	UpdateSourceHealth(ctx context.Context, source string, apply func(domain.SourceHealth) domain.SourceHealth) (domain.SourceHealth, error)
}
