package matcher

import (
	"sort"

	"github.com/angeles-renjo/gasph-sub000/models"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
	"github.com/angeles-renjo/gasph-sub000/scoring"
)

// WidenThreshold: when no city-scoped candidate reaches this confidence the
// search widens to every station.
const WidenThreshold = 0.7

// Matcher pairs official price records with candidate stations. All methods
// are pure computations over already-fetched data and are safe to run
// concurrently.
type Matcher struct {
	norm   *normalizer.Normalizer
	scorer *scoring.Scorer
}

// New builds a Matcher.
func New(norm *normalizer.Normalizer, scorer *scoring.Scorer) *Matcher {
	return &Matcher{norm: norm, scorer: scorer}
}

// inCityScope reports whether the station belongs to the record's city pool:
// its normalized city equals the record's normalized area, or the area is a
// regional name containing that city.
func (m *Matcher) inCityScope(price models.PriceRecord, station models.Station) bool {
	return m.norm.SameCity(price.Area, station.City) || m.norm.CityInArea(price.Area, station.City)
}

// BestStationForPrice picks the single best station for an official price
// record. The city-scoped pool is searched first; when nothing there reaches
// the widen threshold the search covers all stations and the widened winner
// is kept only if strictly better. Ties keep the station encountered first
// in city-scoped search order. Returns nil when nothing clears the validity
// threshold.
func (m *Matcher) BestStationForPrice(price models.PriceRecord, stations []models.Station) *models.MatchResult {
	var best *models.MatchResult

	for i := range stations {
		if !m.inCityScope(price, stations[i]) {
			continue
		}
		confidence := m.scorer.PriceStationMatch(price, stations[i])
		if best == nil || confidence > best.Confidence {
			best = &models.MatchResult{Price: price, Station: stations[i], Confidence: confidence, ExactCity: true}
		}
	}

	if best == nil || best.Confidence < WidenThreshold {
		for i := range stations {
			if m.inCityScope(price, stations[i]) {
				continue
			}
			confidence := m.scorer.PriceStationMatch(price, stations[i])
			if best == nil || confidence > best.Confidence {
				best = &models.MatchResult{Price: price, Station: stations[i], Confidence: confidence}
			}
		}
	}

	if best == nil || !m.scorer.IsValidMatch(best.Confidence) {
		return nil
	}
	return best
}

// StationsForPrice returns every station the record could apply to, above
// the validity threshold. Exact-city matches always rank ahead of fuzzy
// matches regardless of score; within each group order is confidence
// descending, stable on input order.
func (m *Matcher) StationsForPrice(price models.PriceRecord, stations []models.Station) []models.MatchResult {
	var results []models.MatchResult
	for i := range stations {
		confidence := m.scorer.PriceStationMatch(price, stations[i])
		if !m.scorer.IsValidMatch(confidence) {
			continue
		}
		results = append(results, models.MatchResult{
			Price:      price,
			Station:    stations[i],
			Confidence: confidence,
			ExactCity:  m.inCityScope(price, stations[i]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ExactCity != results[j].ExactCity {
			return results[i].ExactCity
		}
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// BestMatchForStation scores every price record against one station and
// returns the valid matches, confidence descending. This is the inverse
// lookup the aggregator uses when reconciling a single station.
func (m *Matcher) BestMatchForStation(station models.Station, prices []models.PriceRecord) []models.MatchResult {
	var results []models.MatchResult
	for i := range prices {
		confidence := m.scorer.PriceStationMatch(prices[i], station)
		if !m.scorer.IsValidMatch(confidence) {
			continue
		}
		results = append(results, models.MatchResult{
			Price:      prices[i],
			Station:    station,
			Confidence: confidence,
			ExactCity:  m.inCityScope(prices[i], station),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}
