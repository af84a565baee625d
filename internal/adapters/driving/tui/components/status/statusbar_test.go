package status

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBar_Defaults(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Contains(t, bar.View(), "Ready")
	assert.Contains(t, bar.View(), "q: quit")
}

func TestBar_SetError(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetError(errors.New("ledger offline"))

	assert.Equal(t, StateError, bar.State())
	assert.Equal(t, "ledger offline", bar.Message())
	assert.Contains(t, bar.View(), "Error: ledger offline")
}

func TestBar_MarkRefreshedClearsError(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetError(errors.New("boom"))

	bar.MarkRefreshed(time.Date(2026, 3, 1, 9, 30, 15, 0, time.UTC))

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Contains(t, bar.View(), "Updated 09:30:15")
}

func TestBar_InViewHints(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)

	bar.SetInView(true)
	assert.Contains(t, bar.View(), "r: refresh")

	bar.SetInView(false)
	assert.NotContains(t, bar.View(), "r: refresh")
}

func TestBar_Loading(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetState(StateLoading)

	assert.Contains(t, bar.View(), "Loading...")
}
