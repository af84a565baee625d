package domain

// DefaultAdmissionThreshold is the minimum fit score for admission.
const DefaultAdmissionThreshold = 70.0

// Company size buckets derived from employee count.
const (
	SizeUnknown  = ""
	Size1000Plus = "1000+"
	Size501To1k  = "501-1000"
	Size251To500 = "251-500"
	Size101To250 = "101-250"
	Size51To100  = "51-100"
	Size10To50   = "10-50"
	Size1To9     = "1-9"
)

// WeightedLabel pairs a match label with the score it contributes.
// Profiles keep these in slices so "first match wins" is deterministic.
type WeightedLabel struct {
	Label  string  `toml:"label" json:"label" validate:"required"`
	Weight float64 `toml:"weight" json:"weight" validate:"gte=0"`
}

// FitProfile is the weighted ideal-customer profile.
// It is constructed once at startup and treated as immutable afterwards.
type FitProfile struct {
	// Industries are matched in order against the candidate's industry.
	Industries []WeightedLabel `toml:"industries" json:"industries" validate:"dive"`

	// Locations are matched in order against the candidate's location.
	Locations []WeightedLabel `toml:"locations" json:"locations" validate:"dive"`

	// Sizes maps a size bucket (see SizeBucket) to its weight.
	Sizes map[string]float64 `toml:"sizes" json:"sizes" validate:"dive,gte=0"`

	// PainPoints are phrases that signal a good fit when found in free text.
	PainPoints []string `toml:"pain_points" json:"pain_points"`

	// TechIndicators are technology-adoption phrases.
	TechIndicators []string `toml:"tech_indicators" json:"tech_indicators"`

	// Threshold is the minimum score required for admission.
	Threshold float64 `toml:"threshold" json:"threshold" validate:"gte=0,lte=100"`
}

// SizeBucket maps an employee count to its size bucket.
// Counts below one are unknown and fall in no bucket.
func SizeBucket(employees int) string {
	switch {
	case employees >= 1000:
		return Size1000Plus
	case employees >= 501:
		return Size501To1k
	case employees >= 251:
		return Size251To500
	case employees >= 101:
		return Size101To250
	case employees >= 51:
		return Size51To100
	case employees >= 10:
		return Size10To50
	case employees >= 1:
		return Size1To9
	default:
		return SizeUnknown
	}
}

// DefaultFitProfile returns the built-in profile tuned for Hawaii businesses.
func DefaultFitProfile() FitProfile {
	return FitProfile{
		Industries: []WeightedLabel{
			{Label: "tourism", Weight: 25},
			{Label: "hospitality", Weight: 25},
			{Label: "healthcare", Weight: 20},
			{Label: "retail", Weight: 15},
			{Label: "finance", Weight: 20},
			{Label: "real_estate", Weight: 15},
			{Label: "professional_services", Weight: 15},
			{Label: "education", Weight: 12},
			{Label: "government", Weight: 10},
			{Label: "construction", Weight: 10},
			{Label: "agriculture", Weight: 8},
		},
		Locations: []WeightedLabel{
			{Label: "honolulu", Weight: 15},
			{Label: "oahu", Weight: 15},
			{Label: "maui", Weight: 12},
			{Label: "kauai", Weight: 12},
			{Label: "big_island", Weight: 12},
			{Label: "hawaii", Weight: 10},
		},
		Sizes: map[string]float64{
			Size10To50:   20,
			Size51To100:  25,
			Size101To250: 25,
			Size251To500: 20,
			Size501To1k:  10,
			Size1000Plus: 5,
			Size1To9:     5,
		},
		PainPoints: []string{
			"manual processes",
			"data analysis",
			"customer experience",
			"automation",
			"efficiency",
			"digital transformation",
			"competitive advantage",
			"operational costs",
			"scaling challenges",
			"customer insights",
			"personalization",
			"predictive analytics",
		},
		TechIndicators: []string{
			"website",
			"online booking",
			"mobile app",
			"ecommerce",
			"crm",
			"digital marketing",
			"social media",
			"cloud",
			"api",
			"integration",
		},
		Threshold: DefaultAdmissionThreshold,
	}
}
