package driven

import "github.com/custodia-labs/leadscout/internal/core/domain"

// ProfileStore loads the fit profile from user-editable storage.
type ProfileStore interface {
	// Load returns the configured profile, falling back to the built-in
	// default when no usable profile exists.
	Load() (domain.FitProfile, error)

	// Path returns the profile file location.
	Path() string
}
