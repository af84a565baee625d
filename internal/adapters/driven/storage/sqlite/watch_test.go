package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	store := setupTestStore(t)

	reloaded := make(chan struct{}, 16)
	w := NewWatcher(store.Path(), func(context.Context) error {
		reloaded <- struct{}{}
		return nil
	})
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)

	_, _, err := store.LedgerStore().MarkCompany(ctx, "acme", domain.StatusSeen, time.Now())
	require.NoError(t, err)

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload after write")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher("/nonexistent/leadscout/leadscout.db", func(context.Context) error { return nil })

	err := w.Run(context.Background())
	require.Error(t, err)
}
