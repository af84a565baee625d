package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driven"
)

// Ensure ProfileStore implements the interface.
var _ driven.ProfileStore = (*ProfileStore)(nil)

// ProfileFileName is the fit profile file inside the config directory.
const ProfileFileName = "profile.toml"

// ErrInvalidProfile is returned when the profile file cannot be used.
var ErrInvalidProfile = errors.New("invalid fit profile")

var profileValidator = validator.New()

const profileHeader = `# leadscout fit profile
#
# industries and locations are matched in order; the first label found in
# the candidate's field wins. sizes are keyed by employee bucket. Each pain
# point or tech indicator found in the candidate text adds a fixed bonus.
# Candidates scoring below threshold are filtered.

`

// ProfileStore loads the fit profile from a user-editable TOML file.
//
// The store uses lazy initialisation: the file is written with the
// built-in default on first Load, not in the constructor.
type ProfileStore struct {
	path     string
	initOnce sync.Once
	initErr  error
}

// NewProfileStore creates a profile store for path. If path is empty,
// defaults to ~/.leadscout/profile.toml.
func NewProfileStore(path string) (*ProfileStore, error) {
	if path == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(dir, ProfileFileName)
	}
	return &ProfileStore{path: path}, nil
}

// Load returns the profile from disk. If the file cannot be created or
// read, the built-in default is returned without error. If the file exists
// but does not parse or validate, the default is returned together with an
// error wrapping ErrInvalidProfile so callers can warn.
func (s *ProfileStore) Load() (domain.FitProfile, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return domain.DefaultFitProfile(), nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.DefaultFitProfile(), nil
	}

	var profile domain.FitProfile
	if err := toml.Unmarshal(data, &profile); err != nil {
		return domain.DefaultFitProfile(), fmt.Errorf("%w: %s: %v", ErrInvalidProfile, s.path, err)
	}
	if err := profileValidator.Struct(profile); err != nil {
		return domain.DefaultFitProfile(), fmt.Errorf("%w: %s: %v", ErrInvalidProfile, s.path, err)
	}
	if profile.Sizes == nil {
		profile.Sizes = make(map[string]float64)
	}
	return profile, nil
}

// Path returns the profile file path.
func (s *ProfileStore) Path() string {
	return s.path
}

// initialise writes the default profile if no file exists.
// Called once via sync.Once on first Load().
func (s *ProfileStore) initialise() {
	if _, err := os.Stat(s.path); err == nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		s.initErr = fmt.Errorf("create profile directory: %w", err)
		return
	}

	data, err := EncodeProfile(domain.DefaultFitProfile())
	if err != nil {
		s.initErr = err
		return
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		s.initErr = fmt.Errorf("write default profile: %w", err)
	}
}

// EncodeProfile renders a profile as commented TOML.
func EncodeProfile(p domain.FitProfile) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(profileHeader)

	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return buf.Bytes(), nil
}
