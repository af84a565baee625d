package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
)

// ledgerStore implements driven.LedgerStore.
type ledgerStore struct {
	store *Store
}

var _ driven.LedgerStore = (*ledgerStore)(nil)

type companyRow struct {
	Key    string `db:"key"`
	Status string `db:"status"`
}

type sourceCheckRow struct {
	Source    string `db:"source"`
	LastCheck string `db:"last_check"`
}

type sourceQueryRow struct {
	Source string `db:"source"`
	Query  string `db:"query"`
}

type dailyRow struct {
	Date string `db:"date"`
	domain.DailyStats
}

// LoadLedger reads the full ledger document.
func (s *ledgerStore) LoadLedger(ctx context.Context) (*domain.LedgerState, error) {
	db := s.store.db
	state := domain.NewLedgerState()

	var companies []companyRow
	if err := db.SelectContext(ctx, &companies, "SELECT key, status FROM companies ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("loading companies: %w", err)
	}
	for _, c := range companies {
		switch domain.CompanyStatus(c.Status) {
		case domain.StatusSeen:
			state.Seen = append(state.Seen, c.Key)
		case domain.StatusFiltered:
			state.Filtered = append(state.Filtered, c.Key)
		}
	}

	var checks []sourceCheckRow
	if err := db.SelectContext(ctx, &checks, "SELECT source, last_check FROM source_checks"); err != nil {
		return nil, fmt.Errorf("loading source checks: %w", err)
	}
	for _, c := range checks {
		state.Sources[c.Source] = domain.SourceCheck{LastCheck: parseTime(c.LastCheck)}
	}

	var queries []sourceQueryRow
	if err := db.SelectContext(ctx, &queries, "SELECT source, query FROM source_queries ORDER BY source, seq"); err != nil {
		return nil, fmt.Errorf("loading source queries: %w", err)
	}
	for _, q := range queries {
		check := state.Sources[q.Source]
		check.Queries = append(check.Queries, q.Query)
		state.Sources[q.Source] = check
	}

	var daily []dailyRow
	if err := db.SelectContext(ctx, &daily, "SELECT date, admitted, external_calls FROM daily_stats"); err != nil {
		return nil, fmt.Errorf("loading daily stats: %w", err)
	}
	for _, d := range daily {
		state.Daily[d.Date] = d.DailyStats
	}

	return state, nil
}

// MarkCompany inserts the key with status unless it is already recorded.
// It returns the stored status and whether this call inserted it.
func (s *ledgerStore) MarkCompany(ctx context.Context, key string, status domain.CompanyStatus, at time.Time) (domain.CompanyStatus, bool, error) {
	if !status.IsValid() || key == "" {
		return domain.StatusUnknown, false, domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.StatusUnknown, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO companies (key, status, seq, created_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM companies), ?)
		ON CONFLICT(key) DO NOTHING
	`, key, string(status), formatTime(at))
	if err != nil {
		return domain.StatusUnknown, false, fmt.Errorf("marking company: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.StatusUnknown, false, fmt.Errorf("marking company: %w", err)
	}

	var stored string
	if err := tx.GetContext(ctx, &stored, "SELECT status FROM companies WHERE key = ?", key); err != nil {
		return domain.StatusUnknown, false, fmt.Errorf("reading company status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.StatusUnknown, false, fmt.Errorf("committing company: %w", err)
	}
	return domain.CompanyStatus(stored), affected == 1, nil
}

// RecordSourceCheck stamps the source's last check and appends query once.
func (s *ledgerStore) RecordSourceCheck(ctx context.Context, source, query string, at time.Time) error {
	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO source_checks (source, last_check) VALUES (?, ?)
		ON CONFLICT(source) DO UPDATE SET last_check = excluded.last_check
	`, source, formatTime(at))
	if err != nil {
		return fmt.Errorf("recording source check: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO source_queries (source, query, seq)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM source_queries WHERE source = ?))
		ON CONFLICT(source, query) DO NOTHING
	`, source, query, source)
	if err != nil {
		return fmt.Errorf("recording source query: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing source check: %w", err)
	}
	return nil
}

// IncrementDaily adds to a day's counters. The admitted increment is a
// conditional update so concurrent processes cannot pass admittedCap.
func (s *ledgerStore) IncrementDaily(ctx context.Context, date string, admitted, calls, admittedCap int) (domain.DailyStats, error) {
	if admitted < 0 || calls < 0 {
		return domain.DailyStats{}, domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.DailyStats{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO daily_stats (date) VALUES (?) ON CONFLICT(date) DO NOTHING", date); err != nil {
		return domain.DailyStats{}, fmt.Errorf("creating daily stats: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE daily_stats
		SET admitted = admitted + ?, external_calls = external_calls + ?
		WHERE date = ? AND (? < 0 OR admitted + ? <= ?)
	`, admitted, calls, date, admittedCap, admitted, admittedCap)
	if err != nil {
		return domain.DailyStats{}, fmt.Errorf("incrementing daily stats: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return domain.DailyStats{}, fmt.Errorf("incrementing daily stats: %w", err)
	}

	var stats domain.DailyStats
	if err := tx.GetContext(ctx, &stats,
		"SELECT admitted, external_calls FROM daily_stats WHERE date = ?", date); err != nil {
		return domain.DailyStats{}, fmt.Errorf("reading daily stats: %w", err)
	}

	if updated == 0 {
		return stats, domain.ErrDailyLimitExceeded
	}
	if err := tx.Commit(); err != nil {
		return domain.DailyStats{}, fmt.Errorf("committing daily stats: %w", err)
	}
	return stats, nil
}

// GetDaily returns a day's counters, zero if absent.
func (s *ledgerStore) GetDaily(ctx context.Context, date string) (domain.DailyStats, error) {
	var stats domain.DailyStats
	err := s.store.db.GetContext(ctx, &stats,
		"SELECT admitted, external_calls FROM daily_stats WHERE date = ?", date)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DailyStats{}, nil
	}
	if err != nil {
		return domain.DailyStats{}, fmt.Errorf("reading daily stats: %w", err)
	}
	return stats, nil
}

// PruneDaily deletes counters dated before the given key. Date keys are
// YYYY-MM-DD so string order is date order.
func (s *ledgerStore) PruneDaily(ctx context.Context, before string) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM daily_stats WHERE date < ?", before)
	if err != nil {
		return 0, fmt.Errorf("pruning daily stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning daily stats: %w", err)
	}
	return int(n), nil
}
