package services

import (
	"strings"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

// Fit score contributions.
const (
	fitBaseScore        = 50.0
	painPointPoints     = 3.0
	painPointCap        = 15.0
	techIndicatorPoints = 2.0
	techIndicatorCap    = 10.0
	websiteBonus        = 5.0
	contactBonus        = 5.0
	maxFitScore         = 100.0
)

// FitScorer scores candidates against an immutable fit profile.
// It is safe for concurrent use.
type FitScorer struct {
	profile    domain.FitProfile
	industries []domain.WeightedLabel
	locations  []domain.WeightedLabel
	painPoints []string
	tech       []string
}

// NewFitScorer creates a scorer. Labels and phrases are lowercased once
// here so scoring a batch does no repeated work.
func NewFitScorer(profile domain.FitProfile) *FitScorer {
	return &FitScorer{
		profile:    profile,
		industries: lowerLabels(profile.Industries),
		locations:  lowerLabels(profile.Locations),
		painPoints: lowerPhrases(profile.PainPoints),
		tech:       lowerPhrases(profile.TechIndicators),
	}
}

// Profile returns the profile the scorer was built with.
func (s *FitScorer) Profile() domain.FitProfile {
	return s.profile
}

// Threshold returns the minimum admission score.
func (s *FitScorer) Threshold() float64 {
	return s.profile.Threshold
}

// Qualifies reports whether a score meets the admission threshold.
func (s *FitScorer) Qualifies(score float64) bool {
	return score >= s.profile.Threshold
}

// Score returns the candidate's fit score in [0,100].
func (s *FitScorer) Score(c domain.Candidate) float64 {
	return s.Explain(c).Total
}

// Explain returns the itemised score for a candidate.
func (s *FitScorer) Explain(c domain.Candidate) domain.ScoreBreakdown {
	b := domain.ScoreBreakdown{Base: fitBaseScore}

	b.Industry = firstMatch(s.industries, matchText(c.Industry))
	b.Location = firstMatch(s.locations, matchText(c.Location))

	if bucket := domain.SizeBucket(c.EmployeeCount); bucket != domain.SizeUnknown {
		b.Size = s.profile.Sizes[bucket]
	}

	text := strings.ToLower(c.Description + " " + c.Notes)
	b.PainPoints = min(painPointPoints*float64(countPhrases(s.painPoints, text)), painPointCap)

	website := strings.ToLower(c.Website)
	techHits := 0
	for _, phrase := range s.tech {
		if strings.Contains(text, phrase) || strings.Contains(website, phrase) {
			techHits++
		}
	}
	b.Tech = min(techIndicatorPoints*float64(techHits), techIndicatorCap)

	if strings.TrimSpace(c.Website) != "" {
		b.Website = websiteBonus
	}
	if c.HasContact() {
		b.Contact = contactBonus
	}

	total := b.Base + b.Industry + b.Location + b.Size + b.PainPoints + b.Tech + b.Website + b.Contact
	b.Total = max(0, min(total, maxFitScore))
	return b
}

// matchText lowercases s and treats underscores as spaces, so a profile
// label like "big_island" matches "Big Island".
func matchText(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", " ")
}

func lowerLabels(labels []domain.WeightedLabel) []domain.WeightedLabel {
	out := make([]domain.WeightedLabel, 0, len(labels))
	for _, l := range labels {
		label := strings.TrimSpace(matchText(l.Label))
		if label == "" {
			continue
		}
		out = append(out, domain.WeightedLabel{Label: label, Weight: l.Weight})
	}
	return out
}

func lowerPhrases(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// firstMatch returns the weight of the first label contained in text.
func firstMatch(labels []domain.WeightedLabel, text string) float64 {
	if text == "" {
		return 0
	}
	for _, l := range labels {
		if strings.Contains(text, l.Label) {
			return l.Weight
		}
	}
	return 0
}

func countPhrases(phrases []string, text string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}
