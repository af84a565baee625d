package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrDailyLimitExceeded", ErrDailyLimitExceeded},
		{"ErrCompanyFiltered", ErrCompanyFiltered},
		{"ErrAlreadySeen", ErrAlreadySeen},
		{"ErrLedgerUnavailable", ErrLedgerUnavailable},
		{"ErrUnknownRun", ErrUnknownRun},
		{"ErrMissingName", ErrMissingName},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrDailyLimitExceeded_Wrapped(t *testing.T) {
	err := fmt.Errorf("incrementing admitted: %w", ErrDailyLimitExceeded)

	assert.True(t, errors.Is(err, ErrDailyLimitExceeded))
	assert.False(t, errors.Is(err, ErrCompanyFiltered))
	assert.Contains(t, err.Error(), "daily admission limit exceeded")
}

func TestRetryAfterError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &RetryAfterError{Service: "yelp", After: 30 * time.Second})

	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Contains(t, err.Error(), "yelp: rate limited, retry after 30s")

	var ra *RetryAfterError
	assert.True(t, errors.As(err, &ra))
	assert.Equal(t, 30*time.Second, ra.After)

	assert.Equal(t, "maps: rate limited", (&RetryAfterError{Service: "maps"}).Error())
}
