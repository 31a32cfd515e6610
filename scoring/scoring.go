package scoring

import (
	"time"

	"github.com/angeles-renjo/gasph-sub000/models"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
)

// Weights and thresholds for the confidence formulas. Brand identity is the
// stronger signal for a price-to-station match; location disambiguates.
const (
	BrandWeight    = 0.7
	LocationWeight = 0.3

	VoteWeight    = 0.7
	RecencyWeight = 0.3

	// ValidThreshold is the floor below which a price-to-station match is
	// discarded.
	ValidThreshold = 0.5

	// HighThreshold and MediumThreshold bound the display levels.
	HighThreshold   = 0.8
	MediumThreshold = 0.5

	// InvalidPricePenalty is the multiplicative penalty applied when the
	// record carries no usable price. Penalized records still surface so a
	// station without current data never silently disappears.
	InvalidPricePenalty = 0.9
)

// Scorer computes the scalar confidence values used for ranking matches and
// community reports.
type Scorer struct {
	norm           *normalizer.Normalizer
	validityWindow time.Duration
}

// New builds a Scorer. validityWindow is the community report validity
// window used for recency decay.
func New(norm *normalizer.Normalizer, validityWindow time.Duration) *Scorer {
	return &Scorer{norm: norm, validityWindow: validityWindow}
}

// PriceStationMatch scores how likely the official price record applies to
// the station, in [0,1]. Records without a usable price take the flat
// invalid-price penalty but are never excluded here.
func (s *Scorer) PriceStationMatch(price models.PriceRecord, station models.Station) float64 {
	confidence := BrandWeight*s.norm.BrandSimilarity(price.Brand, station.Brand) +
		LocationWeight*s.norm.AreaCityMatchConfidence(price.Area, station.City)
	if !price.HasValidPrice() {
		confidence *= InvalidPricePenalty
	}
	return confidence
}

// IsValidMatch reports whether a match confidence clears the fixed
// validity threshold.
func (s *Scorer) IsValidMatch(confidence float64) bool {
	return confidence >= ValidThreshold
}

// ReportConfidence scores a community report's trustworthiness in [0,1] from
// its vote ratio and its age within the validity window. The score ranks
// candidate reports for the same station and fuel type; it does not gate
// visibility, expiration does.
func (s *Scorer) ReportConfidence(report models.CommunityReport, now time.Time) float64 {
	voteRatio := 0.0
	if total := report.Upvotes + report.Downvotes; total > 0 {
		voteRatio = float64(report.Upvotes) / float64(total)
	}

	age := now.Sub(report.ReportedAt)
	recency := 1 - age.Hours()/s.validityWindow.Hours()
	if recency < 0 {
		recency = 0
	}

	return VoteWeight*voteRatio + RecencyWeight*recency
}

// Level maps a confidence score to its display level.
func Level(confidence float64) string {
	switch {
	case confidence >= HighThreshold:
		return models.ConfidenceHigh
	case confidence >= MediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
