package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
)

// Ensure LedgerStore implements the interface.
var _ driven.LedgerStore = (*LedgerStore)(nil)

// LedgerStore is an in-memory implementation of driven.LedgerStore.
type LedgerStore struct {
	failSwitch

	mu      sync.RWMutex
	status  map[string]domain.CompanyStatus
	order   []string
	sources map[string]domain.SourceCheck
	daily   map[string]domain.DailyStats
	loadErr error
}

// NewLedgerStore creates an empty in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		status:  make(map[string]domain.CompanyStatus),
		sources: make(map[string]domain.SourceCheck),
		daily:   make(map[string]domain.DailyStats),
	}
}

// FailLoad makes LoadLedger return err, simulating a corrupt store.
func (s *LedgerStore) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// LoadLedger returns a copy of the ledger document.
func (s *LedgerStore) LoadLedger(_ context.Context) (*domain.LedgerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}

	state := domain.NewLedgerState()
	for _, key := range s.order {
		switch s.status[key] {
		case domain.StatusSeen:
			state.Seen = append(state.Seen, key)
		case domain.StatusFiltered:
			state.Filtered = append(state.Filtered, key)
		}
	}
	for name, check := range s.sources {
		check.Queries = slices.Clone(check.Queries)
		state.Sources[name] = check
	}
	for date, stats := range s.daily {
		state.Daily[date] = stats
	}
	return state, nil
}

// MarkCompany records status for key unless the key is already recorded.
// The boolean reports whether this call recorded it.
func (s *LedgerStore) MarkCompany(_ context.Context, key string, status domain.CompanyStatus, _ time.Time) (domain.CompanyStatus, bool, error) {
	if !status.IsValid() {
		return domain.StatusUnknown, false, domain.ErrInvalidInput
	}
	if err := s.writeErr(); err != nil {
		return domain.StatusUnknown, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.status[key]; ok {
		return existing, false, nil
	}
	s.status[key] = status
	s.order = append(s.order, key)
	return status, true, nil
}

// RecordSourceCheck appends query once and stamps the check time.
func (s *LedgerStore) RecordSourceCheck(_ context.Context, source, query string, at time.Time) error {
	if err := s.writeErr(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	check := s.sources[source]
	check.LastCheck = at
	if !check.HasQuery(query) {
		check.Queries = append(check.Queries, query)
	}
	s.sources[source] = check
	return nil
}

// IncrementDaily adds to a day's counters, honouring admittedCap.
func (s *LedgerStore) IncrementDaily(_ context.Context, date string, admitted, calls, admittedCap int) (domain.DailyStats, error) {
	if err := s.writeErr(); err != nil {
		return domain.DailyStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.daily[date]
	if admittedCap != driven.UncappedAdmissions && stats.Admitted+admitted > admittedCap {
		return stats, domain.ErrDailyLimitExceeded
	}
	stats.Admitted += admitted
	stats.ExternalCalls += calls
	s.daily[date] = stats
	return stats, nil
}

// GetDaily returns a day's counters.
func (s *LedgerStore) GetDaily(_ context.Context, date string) (domain.DailyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.daily[date], nil
}

// PruneDaily removes counters dated before the given key.
func (s *LedgerStore) PruneDaily(_ context.Context, before string) (int, error) {
	if err := s.writeErr(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for date := range s.daily {
		if date < before {
			delete(s.daily, date)
			n++
		}
	}
	return n, nil
}
