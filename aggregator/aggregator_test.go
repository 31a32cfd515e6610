package aggregator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angeles-renjo/gasph-sub000/models"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
	"github.com/angeles-renjo/gasph-sub000/scoring"
)

type fakePriceStore struct {
	records []models.PriceRecord
	err     error
}

func (f *fakePriceStore) LatestOfficial(ctx context.Context) ([]models.PriceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakePriceStore) ByAreaBrand(ctx context.Context, area, brand string) ([]models.PriceRecord, error) {
	// Narrow fetch finds nothing; the aggregator falls back to the batch.
	return nil, f.err
}

type fakeStationStore struct {
	stations []models.Station
}

func (f *fakeStationStore) ByCity(ctx context.Context, city string) ([]models.Station, error) {
	return f.stations, nil
}

func (f *fakeStationStore) WithinRadius(ctx context.Context, lat, lng, radiusKm float64) ([]models.Station, error) {
	return f.stations, nil
}

func (f *fakeStationStore) ByID(ctx context.Context, id string) (*models.Station, error) {
	for i := range f.stations {
		if f.stations[i].ID == id {
			return &f.stations[i], nil
		}
	}
	return nil, models.ErrNotFound
}

type fakeReportStore struct {
	byStation map[string][]models.CommunityReport
	err       error
}

func (f *fakeReportStore) ActiveForStation(ctx context.Context, stationID string) ([]models.CommunityReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byStation[stationID], nil
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newService(prices *fakePriceStore, stations *fakeStationStore, reports *fakeReportStore) *Service {
	norm := normalizer.NewDefault()
	svc := New(prices, stations, reports, norm, scoring.New(norm, 24*time.Hour))
	svc.now = func() time.Time { return testNow }
	return svc
}

func officialRecord(id, brand, area, fuelType string, price float64) models.PriceRecord {
	return models.PriceRecord{
		ID:          id,
		Brand:       brand,
		Area:        area,
		FuelType:    fuelType,
		MinPrice:    decimal.NewFromFloat(price),
		MaxPrice:    decimal.NewFromFloat(price),
		CommonPrice: decimal.NewFromFloat(price),
		PeriodStart: testNow.AddDate(0, 0, -3),
	}
}

func activeReport(stationID, fuelType string, price float64, age time.Duration, up, down int) models.CommunityReport {
	return models.CommunityReport{
		ID:         fmt.Sprintf("%s-%s-%d", stationID, fuelType, age/time.Minute),
		StationID:  stationID,
		FuelType:   fuelType,
		Price:      decimal.NewFromFloat(price),
		UserID:     "u1",
		ReportedAt: testNow.Add(-age),
		ExpiresAt:  testNow.Add(24*time.Hour - age),
		Upvotes:    up,
		Downvotes:  down,
	}
}

func TestBestPricesForStation(t *testing.T) {
	station := models.Station{ID: "s1", Name: "Petron Commonwealth", Brand: "Petron", City: "Quezon City", Status: models.StationActive}

	prices := &fakePriceStore{records: []models.PriceRecord{
		officialRecord("p1", "Petron", "Quezon City", "RON 95", 65.5),
		officialRecord("p2", "Petron", "Quezon City", "Diesel", 61.0),
	}}
	reports := &fakeReportStore{byStation: map[string][]models.CommunityReport{
		"s1": {activeReport("s1", "ron 95", 64.9, 2*time.Hour, 3, 0)},
	}}

	svc := newService(prices, &fakeStationStore{}, reports)
	got, err := svc.BestPricesForStation(context.Background(), station)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 fuel types, got %d", len(got))
	}

	// Diesel sorts before Gasoline variants.
	if got[0].FuelType != normalizer.FuelDiesel {
		t.Errorf("first entry = %q, want Diesel", got[0].FuelType)
	}
	if got[0].CommunityPrice != nil {
		t.Error("diesel entry should have no community price")
	}

	ron95 := got[1]
	if ron95.FuelType != normalizer.FuelRON95 {
		t.Fatalf("second entry = %q, want RON 95", ron95.FuelType)
	}
	if ron95.Official == nil || !ron95.Official.CommonPrice.Equal(decimal.NewFromFloat(65.5)) {
		t.Errorf("official price not carried: %+v", ron95.Official)
	}
	if ron95.CommunityPrice == nil || !ron95.CommunityPrice.Equal(decimal.NewFromFloat(64.9)) {
		t.Errorf("community price not carried: %v", ron95.CommunityPrice)
	}
	if ron95.Verification == nil || ron95.Verification.ConfirmedCount != 3 {
		t.Errorf("verification metadata missing: %+v", ron95.Verification)
	}
}

func TestBestPricesForStationMostRecentReportWins(t *testing.T) {
	station := models.Station{ID: "s1", Name: "Shell EDSA", Brand: "Shell", City: "Makati"}

	// The older report is far better voted; recency still decides the
	// displayed value.
	reports := &fakeReportStore{byStation: map[string][]models.CommunityReport{
		"s1": {
			activeReport("s1", "RON 95", 63.0, 10*time.Hour, 25, 0),
			activeReport("s1", "RON 95", 64.2, 1*time.Hour, 1, 0),
		},
	}}

	svc := newService(&fakePriceStore{}, &fakeStationStore{}, reports)
	got, err := svc.BestPricesForStation(context.Background(), station)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if !got[0].CommunityPrice.Equal(decimal.NewFromFloat(64.2)) {
		t.Errorf("community price = %v, want the most recent 64.2", got[0].CommunityPrice)
	}
	if got[0].Verification.ConfirmedCount != 1 {
		t.Errorf("verification should describe the displayed report, got %+v", got[0].Verification)
	}
}

func TestBestPricesForStationPartialOnReportFailure(t *testing.T) {
	station := models.Station{ID: "s1", Name: "Petron Commonwealth", Brand: "Petron", City: "Quezon City"}

	prices := &fakePriceStore{records: []models.PriceRecord{
		officialRecord("p1", "Petron", "Quezon City", "Diesel", 61.0),
	}}
	reports := &fakeReportStore{err: errors.New("report store down")}

	svc := newService(prices, &fakeStationStore{}, reports)
	got, err := svc.BestPricesForStation(context.Background(), station)
	if err != nil {
		t.Fatalf("one failed source must not abort reconciliation: %v", err)
	}
	if len(got) != 1 || got[0].Official == nil {
		t.Fatalf("expected official-only partial result, got %+v", got)
	}
}

func TestBestPricesForStationBothSourcesFail(t *testing.T) {
	station := models.Station{ID: "s1", Brand: "Petron", City: "Quezon City"}

	svc := newService(
		&fakePriceStore{err: errors.New("price store down")},
		&fakeStationStore{},
		&fakeReportStore{err: errors.New("report store down")},
	)
	_, err := svc.BestPricesForStation(context.Background(), station)
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestBestPricesForAreaValidRanksAboveInvalid(t *testing.T) {
	stations := []models.Station{
		{ID: "s1", Name: "Petron QC", Brand: "Petron", City: "Quezon City"},
		{ID: "s2", Name: "Shell QC", Brand: "Shell", City: "Quezon City"},
		{ID: "s3", Name: "Caltex QC", Brand: "Caltex", City: "Quezon City"},
	}
	prices := &fakePriceStore{records: []models.PriceRecord{
		officialRecord("p1", "Petron", "Quezon City", "RON 95", 65.5),
		officialRecord("p2", "Shell", "Quezon City", "RON 95", 64.0),
		// Zero-filled bulletin row: high match confidence, no usable price.
		officialRecord("p3", "Caltex", "Quezon City", "RON 95", 0),
	}}

	svc := newService(prices, &fakeStationStore{stations: stations}, &fakeReportStore{})
	got, err := svc.BestPricesForArea(context.Background(), stations, AreaHint{Name: "Quezon City"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	group := got[normalizer.FuelRON95]
	if len(group) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(group))
	}
	if group[0].StationID != "s2" {
		t.Errorf("cheapest valid entry first, got %s", group[0].StationID)
	}
	if group[1].StationID != "s1" {
		t.Errorf("second valid entry = %s, want s1", group[1].StationID)
	}
	// The zero-price record never outranks a genuinely positive price, no
	// matter its confidence.
	if group[2].StationID != "s3" || group[2].HasValidPrice() {
		t.Errorf("invalid entry must rank last, got %+v", group[2])
	}
}

func TestBestPricesForAreaTopN(t *testing.T) {
	stations := []models.Station{
		{ID: "s1", Name: "Petron QC", Brand: "Petron", City: "Quezon City"},
	}
	var records []models.PriceRecord
	for i := 0; i < 7; i++ {
		records = append(records, officialRecord(
			fmt.Sprintf("p%d", i), "Petron", "Quezon City", "Diesel", 60.0+float64(i)))
	}

	svc := newService(&fakePriceStore{records: records}, &fakeStationStore{stations: stations}, &fakeReportStore{})
	got, err := svc.BestPricesForArea(context.Background(), stations, AreaHint{Name: "Quezon City"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	group := got[normalizer.FuelDiesel]
	if len(group) != TopN {
		t.Fatalf("expected top-%d list, got %d entries", TopN, len(group))
	}
	if !group[0].Official.CommonPrice.Equal(decimal.NewFromFloat(60.0)) {
		t.Errorf("cheapest first, got %v", group[0].Official.CommonPrice)
	}
}

func TestBestPricesForAreaBackfillClosestFirst(t *testing.T) {
	near := models.Station{ID: "near", Name: "Petron QC", Brand: "Petron", City: "Quezon City", Latitude: 14.65, Longitude: 121.05}
	far := models.Station{ID: "far", Name: "Shell QC", Brand: "Shell", City: "Quezon City", Latitude: 15.50, Longitude: 121.50}
	stations := []models.Station{far, near}

	// Every record is zero-filled: no valid entries at all, so the list is
	// backfilled closest first rather than returned empty.
	prices := &fakePriceStore{records: []models.PriceRecord{
		officialRecord("p1", "Shell", "Quezon City", "RON 95", 0),
		officialRecord("p2", "Petron", "Quezon City", "RON 95", 0),
	}}

	svc := newService(prices, &fakeStationStore{stations: stations}, &fakeReportStore{})
	got, err := svc.BestPricesForArea(context.Background(), stations, AreaHint{
		Name: "Quezon City", Latitude: 14.64, Longitude: 121.04,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	group := got[normalizer.FuelRON95]
	if len(group) != 2 {
		t.Fatalf("expected 2 backfilled entries, got %d", len(group))
	}
	if group[0].StationID != "near" {
		t.Errorf("backfill must order closest first, got %s", group[0].StationID)
	}
}

func TestBestPricesForAreaCommunityEntriesRank(t *testing.T) {
	stations := []models.Station{
		{ID: "s1", Name: "Petron QC", Brand: "Petron", City: "Quezon City"},
	}
	prices := &fakePriceStore{records: []models.PriceRecord{
		officialRecord("p1", "Petron", "Quezon City", "RON 95", 65.5),
	}}
	reports := &fakeReportStore{byStation: map[string][]models.CommunityReport{
		"s1": {activeReport("s1", "RON 95", 63.5, 3*time.Hour, 5, 1)},
	}}

	svc := newService(prices, &fakeStationStore{stations: stations}, reports)
	got, err := svc.BestPricesForArea(context.Background(), stations, AreaHint{Name: "Quezon City"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	group := got[normalizer.FuelRON95]
	if len(group) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(group))
	}
	price, ok := group[0].DisplayPrice()
	if !ok || !price.Equal(decimal.NewFromFloat(63.5)) {
		t.Errorf("cheaper community entry should rank first, got %v", price)
	}
}
