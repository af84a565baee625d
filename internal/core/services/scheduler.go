package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
	"github.com/custodia-labs/leadscout/internal/core/ports/driving"
	"github.com/custodia-labs/leadscout/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyKeep is how many results are retained per task.
const historyKeep = 100

// Housekeeper performs the maintenance behind scheduled tasks.
type Housekeeper interface {
	PruneLedger(ctx context.Context) (int, error)
	PurgeCache() int
	Sync(ctx context.Context) error
}

// taskFunc runs one housekeeping task and reports how many items it touched.
type taskFunc func(ctx context.Context) (int, error)

// Scheduler runs ledger retention, cache purging and ledger sync on their
// configured intervals. Task state and history live in the SchedulerStore
// so that intervals survive restarts.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	handlers map[string]taskFunc
	tick     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	running  bool
	inflight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler whose tasks are backed by keeper.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	keeper Housekeeper,
) *Scheduler {
	return &Scheduler{
		config: config,
		store:  store,
		handlers: map[string]taskFunc{
			domain.TaskIDLedgerRetention: keeper.PruneLedger,
			domain.TaskIDCachePurge: func(context.Context) (int, error) {
				return keeper.PurgeCache(), nil
			},
			domain.TaskIDLedgerSync: func(ctx context.Context) (int, error) {
				return 0, keeper.Sync(ctx)
			},
		},
		tick:     time.Minute,
		now:      time.Now,
		inflight: make(map[string]bool),
	}
}

// Start runs the scheduler loop. It blocks until Stop is called or ctx is
// cancelled. When disabled it just waits for ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled || s.store == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop ends the loop and waits for in-flight tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures all enabled tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	for _, id := range []string{domain.TaskIDLedgerRetention, domain.TaskIDCachePurge, domain.TaskIDLedgerSync} {
		taskCfg := s.config.GetTaskConfig(id)
		if !taskCfg.Enabled {
			continue
		}
		if err := s.ensureTask(ctx, id, domain.TaskNames[id], taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates a task, or reschedules it when its interval changed.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	switch {
	case task == nil:
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			NextRun:  now.Add(cfg.Interval),
		}
	case task.Interval != cfg.Interval:
		task.Interval = cfg.Interval
		task.NextRun = now.Add(cfg.Interval)
	}
	task.Enabled = cfg.Enabled

	return s.store.SaveTask(ctx, task)
}

func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks starts every due task that is not already running.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		if tasks[i].IsDue(now) {
			s.runTask(ctx, &tasks[i])
		}
	}
}

// runTask executes a task in the background and records its outcome.
// A task still running from a previous tick is skipped.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	handler, ok := s.handlers[task.ID]
	if !ok {
		logger.Warn("scheduler: unknown task ID: %s", task.ID)
		return
	}

	s.mu.Lock()
	if s.inflight[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping", task.ID)
		return
	}
	s.inflight[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{TaskID: task.ID, StartedAt: s.now()}
		n, err := handler(ctx)
		result.ItemsProcessed = n
		result.EndedAt = s.now()

		if err != nil {
			logger.Warn("scheduler: %s failed: %v", task.ID, err)
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			logger.Debug("scheduler: %s processed %d", task.ID, n)
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		s.persist(ctx, task, result)
	}()
}

// persist saves task state and history. Failures are logged only.
func (s *Scheduler) persist(ctx context.Context, task *domain.ScheduledTask, result *domain.TaskResult) {
	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Warn("scheduler: failed to save task %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, historyKeep); err != nil {
		logger.Warn("scheduler: failed to prune history: %v", err)
	}
}
