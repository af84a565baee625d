package domain

import "strings"

// Candidate is a raw discovered business produced by a scraping collaborator.
// The engine never mutates a Candidate; scoring produces a ScoredCandidate copy.
type Candidate struct {
	// CompanyName is the business name as listed by the source.
	CompanyName string `json:"company_name"`

	// Website is the business website, in any URL form.
	Website string `json:"website,omitempty"`

	// Location is free text (city, island, address).
	Location string `json:"location,omitempty"`

	// Industry is the listing's category or industry label.
	Industry string `json:"industry,omitempty"`

	// EmployeeCount is an estimate; zero means unknown.
	EmployeeCount int `json:"employee_count,omitempty"`

	// Description is the listing's free-text description.
	Description string `json:"description,omitempty"`

	// Notes holds any collaborator-supplied notes.
	Notes string `json:"notes,omitempty"`

	// Email is a contact email address.
	Email string `json:"email,omitempty"`

	// Phone is a contact phone number in any format.
	Phone string `json:"phone,omitempty"`

	// Source names the directory the candidate was scraped from.
	Source string `json:"source,omitempty"`
}

// HasName reports whether the candidate carries a usable company name.
func (c Candidate) HasName() bool {
	return strings.TrimSpace(c.CompanyName) != ""
}

// HasContact reports whether an email or phone is present.
func (c Candidate) HasContact() bool {
	return strings.TrimSpace(c.Email) != "" || strings.TrimSpace(c.Phone) != ""
}

// ScoredCandidate is a candidate annotated with its fit score.
type ScoredCandidate struct {
	Candidate

	// FitScore is the 0-100 suitability score.
	FitScore float64 `json:"fit_score"`

	// Key is the normalised company key recorded in the ledger.
	Key string `json:"key"`
}

// PrioritizeOptions tunes a single prioritisation run.
type PrioritizeOptions struct {
	// MaxCandidates caps the admitted list below remaining capacity.
	// Zero means no additional cap.
	MaxCandidates int
}

// PrioritizeResult is the outcome of a prioritisation run.
type PrioritizeResult struct {
	// RunID identifies the run and its capacity reservation.
	RunID string `json:"run_id,omitempty"`

	// Admitted is the sorted, quota-truncated list to persist.
	Admitted []ScoredCandidate `json:"admitted"`

	// Discovered is the number of candidates submitted.
	Discovered int `json:"discovered"`

	// Duplicates counts candidates dropped by existing-record or ledger checks.
	Duplicates int `json:"duplicates"`

	// Filtered counts candidates dropped for scoring below threshold.
	Filtered int `json:"filtered"`

	// Malformed counts candidates dropped for missing a company name.
	Malformed int `json:"malformed"`

	// Truncated counts qualifying candidates cut by the capacity limit.
	Truncated int `json:"truncated"`

	// Remaining is the capacity left after this run's reservation.
	Remaining int `json:"remaining"`

	// DailyLimitReached is set when no capacity remained at the start of the run.
	DailyLimitReached bool `json:"daily_limit_reached"`

	// Aborted is set when the run was cancelled between candidates.
	Aborted bool `json:"aborted,omitempty"`
}

// Status returns a short human-readable summary of the run outcome.
func (r *PrioritizeResult) Status() string {
	switch {
	case r.DailyLimitReached:
		return "daily limit reached"
	case r.Aborted:
		return "aborted"
	case len(r.Admitted) == 0:
		return "no qualifying candidates"
	default:
		return "ok"
	}
}

// ScoreBreakdown itemises each additive contribution to a fit score.
type ScoreBreakdown struct {
	Base       float64 `json:"base"`
	Industry   float64 `json:"industry"`
	Location   float64 `json:"location"`
	Size       float64 `json:"size"`
	PainPoints float64 `json:"pain_points"`
	Tech       float64 `json:"tech"`
	Website    float64 `json:"website"`
	Contact    float64 `json:"contact"`

	// Total is the clamped sum of the contributions.
	Total float64 `json:"total"`
}
