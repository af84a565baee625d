package domain

import (
	"strings"
	"time"
)

// Rotation defaults.
const (
	DefaultHistorySize         = 100
	DefaultRepeatWindow        = 7 * 24 * time.Hour
	DefaultMaxQueries          = 5
	DefaultExhaustionThreshold = 80.0
	DefaultRecommendedSources  = 5
	ExhaustionDecayAfter       = 24 * time.Hour
	MaxIndustriesPerPlan       = 3
	MaxLocationsPerIndustry    = 2
	MaxExhaustion              = 100.0
)

// Cursor kinds persisted with the rotation document.
const (
	CursorIndustry = "industry"
	CursorLocation = "location"
)

// QueryRecord is one emitted search query.
type QueryRecord struct {
	Query    string    `json:"query" db:"query"`
	Industry string    `json:"industry,omitempty" db:"industry"`
	Location string    `json:"location,omitempty" db:"location"`
	UsedAt   time.Time `json:"used_at" db:"used_at"`
}

// Matches reports whether the record is the same query, ignoring case.
func (r QueryRecord) Matches(query string) bool {
	return strings.EqualFold(r.Query, query)
}

// SourceHealth tracks how productive an external source currently is.
type SourceHealth struct {
	Source string `json:"source"`

	// Exhaustion is a smoothed duplicate rate in [0,100].
	Exhaustion float64 `json:"exhaustion"`

	// LastCheckedAt is stamped by every results report.
	LastCheckedAt time.Time `json:"last_checked_at"`

	// DecayedAt is when exhaustion was last halved for inactivity.
	DecayedAt time.Time `json:"decayed_at,omitempty"`

	Runs       int `json:"runs"`
	TotalFound int `json:"total_found"`
	Duplicates int `json:"duplicates"`
	Admitted   int `json:"admitted"`
}

// RotationState is the durable rotation document.
type RotationState struct {
	// History holds the most recent emitted queries, oldest first.
	History []QueryRecord `json:"queries_used"`

	// Sources maps a source name to its health.
	Sources map[string]SourceHealth `json:"source_exhaustion"`

	// IndustryCursors index into each industry's keyword list.
	IndustryCursors map[string]int `json:"industry_rotation"`

	// LocationCursors count how many times each location has been emitted.
	LocationCursors map[string]int `json:"location_rotation"`
}

// NewRotationState returns an empty rotation state.
func NewRotationState() *RotationState {
	return &RotationState{
		Sources:         make(map[string]SourceHealth),
		IndustryCursors: make(map[string]int),
		LocationCursors: make(map[string]int),
	}
}

// SourceReport is the outcome of one scraping run against a source.
type SourceReport struct {
	Source     string `json:"source" validate:"required"`
	TotalFound int    `json:"total_found" validate:"gte=0"`
	Duplicates int    `json:"duplicates" validate:"gte=0,ltefield=TotalFound"`
	Admitted   int    `json:"admitted" validate:"gte=0"`
}

// PlanRequest asks the planner for the next queries.
type PlanRequest struct {
	Industry   string `json:"industry,omitempty"`
	Location   string `json:"location,omitempty"`
	MaxQueries int    `json:"max_queries,omitempty"`
}

// QueryPlan is the diversified parameter bundle handed to scrapers.
type QueryPlan struct {
	Queries            []string `json:"queries"`
	Industries         []string `json:"industries"`
	Locations          []string `json:"locations"`
	RecommendedSources []string `json:"recommended_sources"`
}

// RotationStats summarises the rotation document for reporting.
type RotationStats struct {
	TotalQueries    int                     `json:"total_queries_used"`
	RecentQueries   []string                `json:"recent_queries"`
	Sources         map[string]SourceHealth `json:"source_exhaustion"`
	IndustryCursors map[string]int          `json:"industry_rotation"`
}

// IndustryKeywords is one industry's rotation vocabulary.
type IndustryKeywords struct {
	Industry string
	Keywords []string
}

// Vocabulary is the fixed search vocabulary the planner rotates through.
type Vocabulary struct {
	Locations  []string
	Industries []IndustryKeywords
	Modifiers  []string
	Sources    []string
}

// Keywords returns the keyword list for an industry, or nil if unknown.
func (v Vocabulary) Keywords(industry string) []string {
	for _, ik := range v.Industries {
		if strings.EqualFold(ik.Industry, industry) {
			return ik.Keywords
		}
	}
	return nil
}

// DefaultVocabulary returns the built-in Hawaii search vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Locations: []string{
			"Honolulu", "Oahu", "Maui", "Kauai", "Big Island", "Hawaii Island",
			"Waikiki", "Lahaina", "Kailua-Kona", "Hilo", "Kihei", "Waipahu",
			"Pearl City", "Kaneohe", "Kapolei", "Aiea", "Mililani", "Kahului",
		},
		Industries: []IndustryKeywords{
			{Industry: "hospitality", Keywords: []string{
				"hotel", "resort", "vacation rental", "bed and breakfast",
				"inn", "lodge", "hostel", "accommodation", "beachfront hotel",
				"boutique hotel", "luxury resort", "timeshare",
			}},
			{Industry: "tourism", Keywords: []string{
				"tour operator", "activity provider", "tour company",
				"excursion", "sightseeing", "adventure tours", "snorkeling",
				"luau", "boat tours", "helicopter tours", "zipline",
			}},
			{Industry: "restaurant", Keywords: []string{
				"restaurant", "cafe", "coffee shop", "bar", "food truck",
				"catering", "bakery", "dining", "fast food", "fine dining",
				"seafood restaurant", "asian restaurant", "breakfast spot",
			}},
			{Industry: "retail", Keywords: []string{
				"shop", "boutique", "store", "retail", "gift shop",
				"clothing store", "jewelry store", "souvenir shop",
				"surf shop", "art gallery", "marketplace",
			}},
			{Industry: "healthcare", Keywords: []string{
				"medical clinic", "dental office", "healthcare provider",
				"physical therapy", "urgent care", "wellness center",
				"chiropractic", "medical practice", "health clinic",
			}},
			{Industry: "professional_services", Keywords: []string{
				"law firm", "accounting firm", "consulting", "insurance agency",
				"real estate", "marketing agency", "financial advisor",
				"business services", "property management", "tax services",
			}},
			{Industry: "wellness", Keywords: []string{
				"spa", "massage", "yoga studio", "fitness center", "gym",
				"wellness spa", "beauty salon", "day spa", "health club",
			}},
			{Industry: "construction", Keywords: []string{
				"contractor", "construction company", "builder",
				"home improvement", "remodeling", "roofing", "plumbing",
				"electrical contractor", "landscaping",
			}},
			{Industry: "education", Keywords: []string{
				"school", "tutoring", "training center", "daycare",
				"preschool", "education center", "learning center",
			}},
		},
		Modifiers: []string{
			"business", "company", "service", "provider", "professional",
			"local", "island", "hawaiian", "best", "top rated",
		},
		Sources: []string{
			"google_maps",
			"yelp",
			"linkedin",
			"pacific_business_news",
			"hawaii_directories",
			"apple_maps",
			"better_business_bureau",
			"tripadvisor",
		},
	}
}
