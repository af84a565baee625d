package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
)

// rotationStore implements driven.RotationStore.
type rotationStore struct {
	store *Store
}

var _ driven.RotationStore = (*rotationStore)(nil)

type historyRow struct {
	Query    string `db:"query"`
	Industry string `db:"industry"`
	Location string `db:"location"`
	UsedAt   string `db:"used_at"`
}

type cursorRow struct {
	Kind     string `db:"kind"`
	Name     string `db:"name"`
	Position int    `db:"position"`
}

type healthRow struct {
	Source        string         `db:"source"`
	Exhaustion    float64        `db:"exhaustion"`
	LastCheckedAt sql.NullString `db:"last_checked_at"`
	DecayedAt     sql.NullString `db:"decayed_at"`
	Runs          int            `db:"runs"`
	TotalFound    int            `db:"total_found"`
	Duplicates    int            `db:"duplicates"`
	Admitted      int            `db:"admitted"`
}

func (r healthRow) health() domain.SourceHealth {
	return domain.SourceHealth{
		Source:        r.Source,
		Exhaustion:    r.Exhaustion,
		LastCheckedAt: parseNullableTime(r.LastCheckedAt),
		DecayedAt:     parseNullableTime(r.DecayedAt),
		Runs:          r.Runs,
		TotalFound:    r.TotalFound,
		Duplicates:    r.Duplicates,
		Admitted:      r.Admitted,
	}
}

// LoadRotation reads the full rotation document.
func (s *rotationStore) LoadRotation(ctx context.Context) (*domain.RotationState, error) {
	db := s.store.db
	state := domain.NewRotationState()

	var history []historyRow
	if err := db.SelectContext(ctx, &history,
		"SELECT query, industry, location, used_at FROM query_history ORDER BY id"); err != nil {
		return nil, fmt.Errorf("loading query history: %w", err)
	}
	state.History = make([]domain.QueryRecord, 0, len(history))
	for _, h := range history {
		state.History = append(state.History, domain.QueryRecord{
			Query:    h.Query,
			Industry: h.Industry,
			Location: h.Location,
			UsedAt:   parseTime(h.UsedAt),
		})
	}

	var cursors []cursorRow
	if err := db.SelectContext(ctx, &cursors, "SELECT kind, name, position FROM rotation_cursors"); err != nil {
		return nil, fmt.Errorf("loading rotation cursors: %w", err)
	}
	for _, c := range cursors {
		switch c.Kind {
		case domain.CursorIndustry:
			state.IndustryCursors[c.Name] = c.Position
		case domain.CursorLocation:
			state.LocationCursors[c.Name] = c.Position
		}
	}

	var health []healthRow
	if err := db.SelectContext(ctx, &health, `
		SELECT source, exhaustion, last_checked_at, decayed_at, runs, total_found, duplicates, admitted
		FROM source_health
	`); err != nil {
		return nil, fmt.Errorf("loading source health: %w", err)
	}
	for _, h := range health {
		state.Sources[h.Source] = h.health()
	}

	return state, nil
}

// RecordPlan appends records, trims history to the newest keep entries and
// upserts cursors in one transaction.
func (s *rotationStore) RecordPlan(ctx context.Context, records []domain.QueryRecord, cursors map[string]map[string]int, keep int) error {
	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO query_history (query, industry, location, used_at) VALUES (?, ?, ?, ?)
		`, r.Query, r.Industry, r.Location, formatTime(r.UsedAt)); err != nil {
			return fmt.Errorf("recording query: %w", err)
		}
	}

	if keep > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM query_history
			WHERE id NOT IN (SELECT id FROM query_history ORDER BY id DESC LIMIT ?)
		`, keep); err != nil {
			return fmt.Errorf("trimming query history: %w", err)
		}
	}

	for kind, positions := range cursors {
		for name, pos := range positions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO rotation_cursors (kind, name, position) VALUES (?, ?, ?)
				ON CONFLICT(kind, name) DO UPDATE SET position = excluded.position
			`, kind, name, pos); err != nil {
				return fmt.Errorf("saving %s cursor: %w", kind, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing plan: %w", err)
	}
	return nil
}

// UpdateSourceHealth reads, transforms and writes one source's health in
// a single transaction. Transactions begin immediate, so the read already
// holds the write lock and no other process can interleave.
func (s *rotationStore) UpdateSourceHealth(
	ctx context.Context,
	source string,
	apply func(domain.SourceHealth) domain.SourceHealth,
) (domain.SourceHealth, error) {
	if source == "" {
		return domain.SourceHealth{}, domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.SourceHealth{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current := domain.SourceHealth{Source: source}
	var row healthRow
	err = tx.GetContext(ctx, &row, `
		SELECT source, exhaustion, last_checked_at, decayed_at, runs, total_found, duplicates, admitted
		FROM source_health WHERE source = ?
	`, source)
	switch {
	case err == nil:
		current = row.health()
	case !errors.Is(err, sql.ErrNoRows):
		return domain.SourceHealth{}, fmt.Errorf("reading source health: %w", err)
	}

	next := apply(current)
	next.Source = source

	_, err = tx.ExecContext(ctx, `
		INSERT INTO source_health
			(source, exhaustion, last_checked_at, decayed_at, runs, total_found, duplicates, admitted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			exhaustion = excluded.exhaustion,
			last_checked_at = excluded.last_checked_at,
			decayed_at = excluded.decayed_at,
			runs = excluded.runs,
			total_found = excluded.total_found,
			duplicates = excluded.duplicates,
			admitted = excluded.admitted
	`, next.Source, next.Exhaustion,
		formatNullableTime(next.LastCheckedAt), formatNullableTime(next.DecayedAt),
		next.Runs, next.TotalFound, next.Duplicates, next.Admitted)
	if err != nil {
		return domain.SourceHealth{}, fmt.Errorf("saving source health: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.SourceHealth{}, fmt.Errorf("committing source health: %w", err)
	}
	return next, nil
}
