package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angeles-renjo/gasph-sub000/models"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
)

func newScorer() *Scorer {
	return New(normalizer.NewDefault(), 24*time.Hour)
}

func TestPriceStationMatch(t *testing.T) {
	s := newScorer()

	tests := []struct {
		name     string
		price    models.PriceRecord
		station  models.Station
		expected float64
	}{
		{
			name: "same brand same city",
			price: models.PriceRecord{
				Brand:       "Petron",
				Area:        "Quezon City",
				CommonPrice: decimal.NewFromFloat(65.50),
			},
			station: models.Station{
				Brand: "Petron Gas Station",
				City:  "Quezon City",
			},
			// 0.7*1.0 + 0.3*1.0
			expected: 1.0,
		},
		{
			name: "same brand regional area",
			price: models.PriceRecord{
				Brand:       "Shell",
				Area:        "NCR",
				CommonPrice: decimal.NewFromFloat(64.00),
			},
			station: models.Station{
				Brand: "Pilipinas Shell",
				City:  "Makati",
			},
			// 0.7*1.0 + 0.3*0.9
			expected: 0.97,
		},
		{
			name: "different known brands",
			price: models.PriceRecord{
				Brand:       "Petron",
				Area:        "Quezon City",
				CommonPrice: decimal.NewFromFloat(65.50),
			},
			station: models.Station{
				Brand: "Caltex",
				City:  "Quezon City",
			},
			// 0.7*0 + 0.3*1.0
			expected: 0.3,
		},
		{
			name: "zero price takes flat penalty",
			price: models.PriceRecord{
				Brand: "Petron",
				Area:  "Quezon City",
			},
			station: models.Station{
				Brand: "Petron",
				City:  "Quezon City",
			},
			// (0.7 + 0.3) * 0.9
			expected: 0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.PriceStationMatch(tt.price, tt.station)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("PriceStationMatch() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestPriceStationMatchDeterministic(t *testing.T) {
	s := newScorer()

	price := models.PriceRecord{Brand: "Seaoil", Area: "Metro Manila", CommonPrice: decimal.NewFromFloat(60)}
	station := models.Station{Brand: "Sea Oil", City: "Pasig"}

	first := s.PriceStationMatch(price, station)
	for i := 0; i < 10; i++ {
		if got := s.PriceStationMatch(price, station); got != first {
			t.Fatalf("PriceStationMatch not deterministic: %v != %v", got, first)
		}
	}
}

func TestReportConfidence(t *testing.T) {
	s := newScorer()
	now := time.Now()

	// Spec example: 8 upvotes, 2 downvotes, submitted 2 hours ago with a 24h
	// window. voteRatio 0.8, recency 22/24.
	report := models.CommunityReport{
		Upvotes:    8,
		Downvotes:  2,
		ReportedAt: now.Add(-2 * time.Hour),
	}
	got := s.ReportConfidence(report, now)
	want := 0.7*0.8 + 0.3*(22.0/24.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ReportConfidence() = %v, want %v", got, want)
	}
	if Level(got) != models.ConfidenceHigh {
		t.Errorf("Level(%v) = %v, want high", got, Level(got))
	}
}

func TestReportConfidenceNoVotes(t *testing.T) {
	s := newScorer()
	now := time.Now()

	report := models.CommunityReport{ReportedAt: now}
	got := s.ReportConfidence(report, now)
	if math.Abs(got-0.3) > 1e-9 {
		t.Errorf("ReportConfidence with no votes = %v, want 0.3", got)
	}
}

func TestReportConfidenceRecencyFloor(t *testing.T) {
	s := newScorer()
	now := time.Now()

	// A report older than the window decays to zero recency, never negative.
	report := models.CommunityReport{
		Upvotes:    10,
		ReportedAt: now.Add(-48 * time.Hour),
	}
	got := s.ReportConfidence(report, now)
	if math.Abs(got-0.7) > 1e-9 {
		t.Errorf("ReportConfidence past window = %v, want 0.7", got)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   string
	}{
		{0.85, models.ConfidenceHigh},
		{0.8, models.ConfidenceHigh},
		{0.79, models.ConfidenceMedium},
		{0.5, models.ConfidenceMedium},
		{0.49, models.ConfidenceLow},
		{0, models.ConfidenceLow},
	}

	for _, tt := range tests {
		if got := Level(tt.confidence); got != tt.expected {
			t.Errorf("Level(%v) = %v, want %v", tt.confidence, got, tt.expected)
		}
	}
}
