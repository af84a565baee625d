package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

func TestFitScorer_ClampsToHundred(t *testing.T) {
	scorer := NewFitScorer(domain.DefaultFitProfile())

	c := domain.Candidate{
		CompanyName:   "Aloha Adventures",
		Industry:      "Tourism",
		Location:      "Honolulu, HI",
		EmployeeCount: 80,
		Website:       "https://alohaadventures.com",
	}

	b := scorer.Explain(c)
	assert.Equal(t, 50.0, b.Base)
	assert.Equal(t, 25.0, b.Industry)
	assert.Equal(t, 15.0, b.Location)
	assert.Equal(t, 25.0, b.Size)
	assert.Equal(t, 5.0, b.Website)
	assert.Equal(t, 0.0, b.Contact)
	assert.Equal(t, 100.0, b.Total)
	assert.True(t, scorer.Qualifies(scorer.Score(c)))
}

func TestFitScorer_Contributions(t *testing.T) {
	scorer := NewFitScorer(domain.DefaultFitProfile())

	tests := []struct {
		name string
		c    domain.Candidate
		want float64
	}{
		{
			name: "bare candidate gets base only",
			c:    domain.Candidate{CompanyName: "Nobody"},
			want: 50,
		},
		{
			name: "contact bonus from phone",
			c:    domain.Candidate{CompanyName: "x", Phone: "808-555-1234"},
			want: 55,
		},
		{
			name: "contact bonus from email",
			c:    domain.Candidate{CompanyName: "x", Email: "hi@x.com"},
			want: 55,
		},
		{
			name: "first industry match wins",
			c:    domain.Candidate{CompanyName: "x", Industry: "retail healthcare"},
			want: 70, // healthcare is listed before retail
		},
		{
			name: "underscore labels match spaced text",
			c:    domain.Candidate{CompanyName: "x", Location: "Big Island"},
			want: 62,
		},
		{
			name: "pain points capped at fifteen",
			c: domain.Candidate{
				CompanyName: "x",
				Description: "manual processes, data analysis, automation, efficiency",
				Notes:       "customer experience and scaling challenges",
			},
			want: 65,
		},
		{
			name: "tech indicators counted from website",
			c:    domain.Candidate{CompanyName: "x", Website: "crm.example.com"},
			want: 57, // crm match plus website bonus
		},
		{
			name: "tech indicators capped at ten",
			c: domain.Candidate{
				CompanyName: "x",
				Description: "mobile app, ecommerce, crm, cloud, api, integration",
			},
			want: 60,
		},
		{
			name: "unknown size scores nothing",
			c:    domain.Candidate{CompanyName: "x", EmployeeCount: -4},
			want: 50,
		},
		{
			name: "small business bucket",
			c:    domain.Candidate{CompanyName: "x", EmployeeCount: 3},
			want: 55,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.Score(tt.c), 0.0001)
		})
	}
}

func TestFitScorer_AlwaysInRange(t *testing.T) {
	heavy := domain.DefaultFitProfile()
	for i := range heavy.Industries {
		heavy.Industries[i].Weight = 90
	}
	zero := domain.FitProfile{Threshold: 70}

	candidates := []domain.Candidate{
		{},
		{CompanyName: "a", Industry: "tourism", Location: "maui", EmployeeCount: 5000, Website: "x", Email: "e"},
		{CompanyName: "b", Description: "automation efficiency crm cloud api", Phone: "1"},
	}

	for _, profile := range []domain.FitProfile{heavy, zero, domain.DefaultFitProfile()} {
		scorer := NewFitScorer(profile)
		for _, c := range candidates {
			score := scorer.Score(c)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
	}
}

func TestFitScorer_Threshold(t *testing.T) {
	profile := domain.DefaultFitProfile()
	profile.Threshold = 60
	scorer := NewFitScorer(profile)

	assert.Equal(t, 60.0, scorer.Threshold())
	assert.True(t, scorer.Qualifies(60))
	assert.False(t, scorer.Qualifies(59.9))
}
