package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
)

// Ensure RotationStore implements the interface.
var _ driven.RotationStore = (*RotationStore)(nil)

// RotationStore is an in-memory implementation of driven.RotationStore.
type RotationStore struct {
	failSwitch

	mu      sync.RWMutex
	state   *domain.RotationState
	loadErr error
}

// NewRotationStore creates an empty in-memory rotation store.
func NewRotationStore() *RotationStore {
	return &RotationStore{state: domain.NewRotationState()}
}

// FailLoad makes LoadRotation return err, simulating a corrupt store.
func (s *RotationStore) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// LoadRotation returns a copy of the rotation document.
func (s *RotationStore) LoadRotation(_ context.Context) (*domain.RotationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return &domain.RotationState{
		History:         slices.Clone(s.state.History),
		Sources:         maps.Clone(s.state.Sources),
		IndustryCursors: maps.Clone(s.state.IndustryCursors),
		LocationCursors: maps.Clone(s.state.LocationCursors),
	}, nil
}

// RecordPlan appends records, trims history to keep and writes cursors.
func (s *RotationStore) RecordPlan(_ context.Context, records []domain.QueryRecord, cursors map[string]map[string]int, keep int) error {
	if err := s.writeErr(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.state.History, records...)
	if keep > 0 && len(history) > keep {
		history = slices.Clone(history[len(history)-keep:])
	}
	s.state.History = history

	for name, pos := range cursors[domain.CursorIndustry] {
		s.state.IndustryCursors[name] = pos
	}
	for name, pos := range cursors[domain.CursorLocation] {
		s.state.LocationCursors[name] = pos
	}
	return nil
}

// UpdateSourceHealth applies apply to a source's health record under the
// store lock.
func (s *RotationStore) UpdateSourceHealth(_ context.Context, source string, apply func(domain.SourceHealth) domain.SourceHealth) (domain.SourceHealth, error) {
	if source == "" {
		return domain.SourceHealth{}, domain.ErrInvalidInput
	}
	if err := s.writeErr(); err != nil {
		return domain.SourceHealth{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.Sources[source]
	current.Source = source
	next := apply(current)
	next.Source = source
	s.state.Sources[source] = next
	return next, nil
}
