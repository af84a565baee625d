package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

// UncappedAdmissions disables the admitted-count cap in IncrementDaily.
const UncappedAdmissions = -1

// LedgerStore persists the discovery ledger.
// Every mutating call must be durable before it returns.
type LedgerStore interface {
	// LoadLedger reads the full ledger document.
	LoadLedger(ctx context.Context) (*domain.LedgerState, error)

	// MarkCompany records a status for a company key if the key is not yet
	// recorded. The first recorded status wins; the effective status is
	// returned along with whether this call did the recording.
	MarkCompany(ctx context.Context, key string, status domain.CompanyStatus, at time.Time) (stored domain.CompanyStatus, inserted bool, err error)

	// RecordSourceCheck appends query to the source's executed list (once)
	// and stamps its last check time.
	RecordSourceCheck(ctx context.Context, source, query string, at time.Time) error

	// IncrementDaily adds to a day's counters and returns the new totals.
	// When admittedCap is not UncappedAdmissions and the admitted total would
	// exceed it, nothing is written and domain.ErrDailyLimitExceeded is returned.
	IncrementDaily(ctx context.Context, date string, admitted, calls, admittedCap int) (domain.DailyStats, error)

	// GetDaily returns a day's counters, zero if absent.
	GetDaily(ctx context.Context, date string) (domain.DailyStats, error)

	// PruneDaily deletes counters for dates before the given date key.
	PruneDaily(ctx context.Context, before string) (int, error)
}
