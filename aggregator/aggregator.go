package aggregator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/golang/geo/s2"

	"github.com/angeles-renjo/gasph-sub000/dedup"
	"github.com/angeles-renjo/gasph-sub000/matcher"
	"github.com/angeles-renjo/gasph-sub000/models"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
	"github.com/angeles-renjo/gasph-sub000/scoring"
)

const (
	// TopN is the length of the ranked per-fuel list for an area.
	TopN = 5

	// minValidEntries is the number of valid-price entries below which the
	// area list is backfilled with closest-first invalid entries so the UI
	// always has something to render.
	minValidEntries = 3

	earthRadiusKm = 6371.0
)

// PriceStore fetches official price records. Implemented by the database
// layer; the engine never talks to storage directly.
type PriceStore interface {
	LatestOfficial(ctx context.Context) ([]models.PriceRecord, error)
	ByAreaBrand(ctx context.Context, area, brand string) ([]models.PriceRecord, error)
}

// StationStore fetches stations.
type StationStore interface {
	ByCity(ctx context.Context, city string) ([]models.Station, error)
	WithinRadius(ctx context.Context, lat, lng, radiusKm float64) ([]models.Station, error)
	ByID(ctx context.Context, id string) (*models.Station, error)
}

// ReportStore fetches non-expired community reports.
type ReportStore interface {
	ActiveForStation(ctx context.Context, stationID string) ([]models.CommunityReport, error)
}

// AreaHint locates the area a caller is asking about, for distance ordering.
type AreaHint struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Service reconciles official and community prices into ranked, time-bounded
// views. A failed fetch from one source degrades to partial results; only
// when every source fails does an operation error out.
type Service struct {
	prices   PriceStore
	stations StationStore
	reports  ReportStore

	norm    *normalizer.Normalizer
	scorer  *scoring.Scorer
	matcher *matcher.Matcher
	dedup   *dedup.Deduplicator

	now func() time.Time
}

// New wires the aggregator. Collaborators are injected explicitly; there is
// no service locator.
func New(prices PriceStore, stations StationStore, reports ReportStore, norm *normalizer.Normalizer, scorer *scoring.Scorer) *Service {
	return &Service{
		prices:   prices,
		stations: stations,
		reports:  reports,
		norm:     norm,
		scorer:   scorer,
		matcher:  matcher.New(norm, scorer),
		dedup:    dedup.New(norm),
		now:      time.Now,
	}
}

// BestPricesForStation builds the reconciled per-fuel view for one station:
// official records matched and deduplicated, blended with the most recent
// non-expired community report per fuel type. Recency decides the displayed
// community value; vote confidence rides along as metadata only.
func (s *Service) BestPricesForStation(ctx context.Context, station models.Station) ([]models.AggregatedPrice, error) {
	now := s.now()

	records, officialErr := s.officialRecordsForStation(ctx, station)
	if officialErr != nil {
		log.Warnf("official prices unavailable for station %s, continuing with community data: %v", station.ID, officialErr)
	}
	reports, reportsErr := s.reports.ActiveForStation(ctx, station.ID)
	if reportsErr != nil {
		log.Warnf("community reports unavailable for station %s, continuing with official data: %v", station.ID, reportsErr)
	}
	if officialErr != nil && reportsErr != nil {
		return nil, fmt.Errorf("reconciling station %s: %w", station.ID, models.ErrUpstreamUnavailable)
	}

	matches := s.matcher.BestMatchForStation(station, records)
	candidates := make([]dedup.Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, dedup.Candidate{Record: m.Price, Confidence: m.Confidence})
	}

	byFuel := map[string]*models.AggregatedPrice{}
	for _, c := range s.dedup.Deduplicate(candidates) {
		byFuel[c.FuelType] = &models.AggregatedPrice{
			StationID:   station.ID,
			StationName: station.Name,
			FuelType:    c.FuelType,
			Official: &models.OfficialPrice{
				MinPrice:    c.Record.MinPrice,
				MaxPrice:    c.Record.MaxPrice,
				CommonPrice: c.Record.CommonPrice,
				PeriodStart: c.Record.PeriodStart,
			},
			MatchConfidence: c.Confidence,
			ConfidenceLevel: scoring.Level(c.Confidence),
		}
	}

	for _, report := range s.latestReportPerFuel(reports, now) {
		price := report.Price
		entry, ok := byFuel[s.norm.NormalizeFuelType(report.FuelType)]
		if !ok {
			confidence := s.scorer.ReportConfidence(report, now)
			entry = &models.AggregatedPrice{
				StationID:       station.ID,
				StationName:     station.Name,
				FuelType:        s.norm.NormalizeFuelType(report.FuelType),
				MatchConfidence: confidence,
				ConfidenceLevel: scoring.Level(confidence),
			}
			byFuel[entry.FuelType] = entry
		}
		entry.CommunityPrice = &price
		entry.Verification = &models.Verification{
			ConfirmedCount: report.Upvotes,
			DisputedCount:  report.Downvotes,
			RecencyLabel:   recencyLabel(report.ReportedAt, now),
		}
	}

	out := make([]models.AggregatedPrice, 0, len(byFuel))
	for _, entry := range byFuel {
		out = append(out, *entry)
	}
	sortByFuelType(out)
	return out, nil
}

// officialRecordsForStation prefers the narrow area+brand fetch and falls
// back to the full latest-period batch when the narrow query returns
// nothing, since bulletin area strings rarely line up with station cities.
func (s *Service) officialRecordsForStation(ctx context.Context, station models.Station) ([]models.PriceRecord, error) {
	records, err := s.prices.ByAreaBrand(ctx, station.City, station.Brand)
	if err == nil && len(records) > 0 {
		return records, nil
	}
	if err != nil {
		log.Warnf("area+brand price fetch failed for station %s, falling back to full batch: %v", station.ID, err)
	}
	return s.prices.LatestOfficial(ctx)
}

// BestPricesForArea produces, per canonical fuel type across the given
// stations, a ranked top-N list blending official and community entries.
// Valid prices always rank above entries without one; within the valid group
// cheapest first, within the invalid group confidence descending. When fewer
// than three valid entries exist the list is backfilled closest-first so it
// is never short.
func (s *Service) BestPricesForArea(ctx context.Context, stations []models.Station, hint AreaHint) (map[string][]models.AggregatedPrice, error) {
	now := s.now()

	records, officialErr := s.prices.LatestOfficial(ctx)
	if officialErr != nil {
		log.Warnf("official prices unavailable for area %s, continuing with community data: %v", hint.Name, officialErr)
	}

	reportFailures := 0
	entries := []models.AggregatedPrice{}

	for _, record := range records {
		best := s.matcher.BestStationForPrice(record, stations)
		if best == nil {
			continue
		}
		entries = append(entries, models.AggregatedPrice{
			StationID:   best.Station.ID,
			StationName: best.Station.Name,
			FuelType:    s.norm.NormalizeFuelType(record.FuelType),
			Official: &models.OfficialPrice{
				MinPrice:    record.MinPrice,
				MaxPrice:    record.MaxPrice,
				CommonPrice: record.CommonPrice,
				PeriodStart: record.PeriodStart,
			},
			MatchConfidence: best.Confidence,
			ConfidenceLevel: scoring.Level(best.Confidence),
			DistanceKm:      distanceKm(hint, best.Station),
		})
	}

	for _, station := range stations {
		reports, err := s.reports.ActiveForStation(ctx, station.ID)
		if err != nil {
			log.Warnf("community reports unavailable for station %s: %v", station.ID, err)
			reportFailures++
			continue
		}
		for _, report := range s.latestReportPerFuel(reports, now) {
			price := report.Price
			confidence := s.scorer.ReportConfidence(report, now)
			entries = append(entries, models.AggregatedPrice{
				StationID:      station.ID,
				StationName:    station.Name,
				FuelType:       s.norm.NormalizeFuelType(report.FuelType),
				CommunityPrice: &price,
				Verification: &models.Verification{
					ConfirmedCount: report.Upvotes,
					DisputedCount:  report.Downvotes,
					RecencyLabel:   recencyLabel(report.ReportedAt, now),
				},
				MatchConfidence: confidence,
				ConfidenceLevel: scoring.Level(confidence),
				DistanceKm:      distanceKm(hint, station),
			})
		}
	}

	if officialErr != nil && len(stations) > 0 && reportFailures == len(stations) {
		return nil, fmt.Errorf("reconciling area %s: %w", hint.Name, models.ErrUpstreamUnavailable)
	}

	grouped := map[string][]models.AggregatedPrice{}
	for _, entry := range entries {
		grouped[entry.FuelType] = append(grouped[entry.FuelType], entry)
	}

	ranked := make(map[string][]models.AggregatedPrice, len(grouped))
	for fuelType, group := range grouped {
		ranked[fuelType] = rankAreaEntries(group)
	}
	return ranked, nil
}

// rankAreaEntries orders one fuel type's entries: valid prices ascending,
// then invalid entries. Invalid ordering is confidence descending, except
// when the valid group is too thin, in which case closest distance first.
func rankAreaEntries(entries []models.AggregatedPrice) []models.AggregatedPrice {
	var valid, invalid []models.AggregatedPrice
	for _, e := range entries {
		if e.HasValidPrice() {
			valid = append(valid, e)
		} else {
			invalid = append(invalid, e)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		pi, _ := valid[i].DisplayPrice()
		pj, _ := valid[j].DisplayPrice()
		if !pi.Equal(pj) {
			return pi.LessThan(pj)
		}
		return valid[i].MatchConfidence > valid[j].MatchConfidence
	})

	if len(valid) < minValidEntries {
		sort.SliceStable(invalid, func(i, j int) bool {
			return invalid[i].DistanceKm < invalid[j].DistanceKm
		})
	} else {
		sort.SliceStable(invalid, func(i, j int) bool {
			return invalid[i].MatchConfidence > invalid[j].MatchConfidence
		})
	}

	out := append(valid, invalid...)
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

// latestReportPerFuel keeps, per canonical fuel type, the most recently
// submitted non-expired report.
func (s *Service) latestReportPerFuel(reports []models.CommunityReport, now time.Time) map[string]models.CommunityReport {
	latest := map[string]models.CommunityReport{}
	for _, report := range reports {
		if report.IsExpired(now) {
			continue
		}
		fuelType := s.norm.NormalizeFuelType(report.FuelType)
		if held, ok := latest[fuelType]; !ok || report.ReportedAt.After(held.ReportedAt) {
			latest[fuelType] = report
		}
	}
	return latest
}

func distanceKm(hint AreaHint, station models.Station) float64 {
	if hint.Latitude == 0 && hint.Longitude == 0 {
		return 0
	}
	from := s2.LatLngFromDegrees(hint.Latitude, hint.Longitude)
	to := s2.LatLngFromDegrees(station.Latitude, station.Longitude)
	return from.Distance(to).Radians() * earthRadiusKm
}

func recencyLabel(reportedAt, now time.Time) string {
	age := now.Sub(reportedAt)
	switch {
	case age < time.Hour:
		return "just now"
	case age < 6*time.Hour:
		return "recent"
	case age < 24*time.Hour:
		return "today"
	default:
		return "stale"
	}
}

func sortByFuelType(entries []models.AggregatedPrice) {
	sort.Slice(entries, func(i, j int) bool {
		li := leadingToken(entries[i].FuelType)
		lj := leadingToken(entries[j].FuelType)
		if li != lj {
			return li < lj
		}
		return entries[i].FuelType < entries[j].FuelType
	})
}

func leadingToken(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}
