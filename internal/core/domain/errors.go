package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Ledger Errors.

	// ErrDailyLimitExceeded indicates an admission increment would push the
	// day's admitted count past the configured daily limit.
	ErrDailyLimitExceeded = errors.New("daily admission limit exceeded")

	// ErrCompanyFiltered indicates a company key was previously filtered for
	// poor fit and cannot be marked seen.
	ErrCompanyFiltered = errors.New("company previously filtered")

	// ErrAlreadySeen indicates a company key was already recorded as seen,
	// possibly by another process sharing the store.
	ErrAlreadySeen = errors.New("company already seen")

	// ErrLedgerUnavailable indicates the ledger store was not configured.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrRateLimited indicates an external service refused a call for rate reasons.
	ErrRateLimited = errors.New("rate limited")

	// Pipeline Errors.

	// ErrUnknownRun indicates a run ID has no outstanding reservation.
	ErrUnknownRun = errors.New("unknown run")

	// ErrMissingName indicates a candidate has no usable company name.
	ErrMissingName = errors.New("candidate has no company name")
)

// RetryAfterError is returned by external fetches that were rate limited.
// After is how long the service asked callers to wait; zero means unspecified.
type RetryAfterError struct {
	Service string
	After   time.Duration
}

func (e *RetryAfterError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Service, e.After)
	}
	return fmt.Sprintf("%s: rate limited", e.Service)
}

// Unwrap lets errors.Is match ErrRateLimited.
func (e *RetryAfterError) Unwrap() error {
	return ErrRateLimited
}
