package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/leadscout/internal/adapters/driven/config/file"
	"github.com/custodia-labs/leadscout/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/leadscout/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/leadscout/internal/adapters/driving/cli"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
	"github.com/custodia-labs/leadscout/internal/core/services"
	"github.com/custodia-labs/leadscout/internal/logger"
	"github.com/custodia-labs/leadscout/internal/telemetry"
)

// stores groups the persistence the engine needs.
type stores struct {
	ledger    driven.LedgerStore
	rotation  driven.RotationStore
	scheduler driven.SchedulerStore
	dbPath    string
	close     func() error
}

// wire builds the engine and its collaborators from global flags.
func wire(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore)
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, err
	}

	profilePath := settings.ProfilePath
	if profilePath == "" {
		profilePath = filepath.Join(configDir, file.ProfileFileName)
	}
	profileStore, err := file.NewProfileStore(profilePath)
	if err != nil {
		return nil, err
	}
	profile, err := profileStore.Load()
	if err != nil {
		logger.Error("%v; using built-in profile", err)
	}

	st, err := openStores(opts)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, settings.Telemetry, version)
	if err != nil {
		logger.Warn("tracing disabled: %v", err)
		shutdown = func(context.Context) error { return nil }
	}

	ledger := services.NewLedger(ctx, st.ledger, services.WithRetentionDays(settings.Ledger.RetentionDays))
	planner := services.NewPlanner(ctx, st.rotation, settings.Rotation)
	cache := services.NewResponseCache(settings.Cache, services.WithCallRecorder(ledger.RecordCall))
	engine := services.NewEngine(ledger, planner, services.NewFitScorer(profile), cache, *settings)

	s := &cli.Services{
		Discovery: engine,
		Settings:  settingsSvc,
		Scheduler: services.NewScheduler(settingsSvc.GetSchedulerConfig(), st.scheduler, engine),
		Close: func() error {
			return errors.Join(shutdown(context.Background()), st.close())
		},
	}
	if st.dbPath != "" {
		s.Watcher = sqlite.NewWatcher(st.dbPath, engine.Sync)
	}
	return s, nil
}

func openStores(opts cli.Options) (*stores, error) {
	if opts.Ephemeral {
		logger.Debug("Using in-memory stores")
		return &stores{
			ledger:    memory.NewLedgerStore(),
			rotation:  memory.NewRotationStore(),
			scheduler: memory.NewSchedulerStore(),
			close:     func() error { return nil },
		}, nil
	}

	store, quarantined, err := sqlite.OpenOrRecover(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if quarantined != "" {
		logger.Error("database was unreadable and has been moved to %s; starting fresh", quarantined)
	}
	logger.Debug("Using database %s", store.Path())

	return &stores{
		ledger:    store.LedgerStore(),
		rotation:  store.RotationStore(),
		scheduler: store.SchedulerStore(),
		dbPath:    store.Path(),
		close:     store.Close,
	}, nil
}
