package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angeles-renjo/gasph-sub000/models"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
	"github.com/angeles-renjo/gasph-sub000/scoring"
)

func newMatcher() *Matcher {
	norm := normalizer.NewDefault()
	return New(norm, scoring.New(norm, 24*time.Hour))
}

func record(brand, area string, price float64) models.PriceRecord {
	return models.PriceRecord{
		Brand:       brand,
		Area:        area,
		FuelType:    "RON 95",
		CommonPrice: decimal.NewFromFloat(price),
	}
}

func TestBestStationForPrice(t *testing.T) {
	m := newMatcher()

	stations := []models.Station{
		{ID: "s1", Name: "Caltex QC", Brand: "Caltex", City: "Quezon City"},
		{ID: "s2", Name: "Petron QC", Brand: "Petron", City: "Quezon City"},
		{ID: "s3", Name: "Petron Cebu", Brand: "Petron", City: "Cebu"},
	}

	got := m.BestStationForPrice(record("Petron", "Quezon City", 65.5), stations)
	if got == nil {
		t.Fatal("expected a match, got nil")
	}
	if got.Station.ID != "s2" {
		t.Errorf("best station = %s, want s2", got.Station.ID)
	}
	if !got.ExactCity {
		t.Error("expected a city-scoped match")
	}
}

func TestBestStationForPriceWidensSearch(t *testing.T) {
	m := newMatcher()

	// Nothing in the record's city pool: s1 is the same brand in another
	// city and only reachable through the widened pass.
	stations := []models.Station{
		{ID: "s1", Name: "Petron Cebu", Brand: "Petron", City: "Cebu"},
		{ID: "s2", Name: "Caltex Davao", Brand: "Caltex", City: "Davao"},
	}

	got := m.BestStationForPrice(record("Petron", "Quezon City", 65.5), stations)
	if got == nil {
		t.Fatal("expected widened search to find a match, got nil")
	}
	if got.Station.ID != "s1" {
		t.Errorf("best station = %s, want s1", got.Station.ID)
	}
	if got.ExactCity {
		t.Error("widened match must not be flagged city-scoped")
	}
}

func TestBestStationForPriceTieBreak(t *testing.T) {
	m := newMatcher()

	// Two identical candidates: the one encountered first wins.
	stations := []models.Station{
		{ID: "s1", Name: "Shell EDSA North", Brand: "Shell", City: "Quezon City"},
		{ID: "s2", Name: "Shell EDSA South", Brand: "Shell", City: "Quezon City"},
	}

	got := m.BestStationForPrice(record("Shell", "Quezon City", 63), stations)
	if got == nil {
		t.Fatal("expected a match, got nil")
	}
	if got.Station.ID != "s1" {
		t.Errorf("tie-break picked %s, want s1", got.Station.ID)
	}
}

func TestBestStationForPriceBelowThreshold(t *testing.T) {
	m := newMatcher()

	// Different known brand in an unrelated city: 0.7*0 + 0.3*0.1 = 0.03.
	stations := []models.Station{
		{ID: "s1", Name: "Caltex Cebu", Brand: "Caltex", City: "Cebu"},
	}

	if got := m.BestStationForPrice(record("Petron", "Quezon City", 65.5), stations); got != nil {
		t.Errorf("expected nil below validity threshold, got %+v", got)
	}
}

func TestStationsForPriceOrdering(t *testing.T) {
	m := newMatcher()

	stations := []models.Station{
		// Fuzzy: identical brand, unrelated city. 0.7*1 + 0.3*0.1 = 0.73.
		{ID: "fuzzy", Name: "Kanto Fuels Cebu", Brand: "Kanto Fuels", City: "Cebu"},
		// City-scoped but weaker brand overlap. 0.7*0.5 + 0.3*1 = 0.65.
		{ID: "exact", Name: "Kanto Commonwealth", Brand: "Kanto", City: "Quezon City"},
	}

	got := m.StationsForPrice(record("Kanto Fuels", "Quezon City", 65.5), stations)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	// The exact-city match ranks first even though ordering by raw score
	// alone could interleave groups.
	if got[0].Station.ID != "exact" {
		t.Errorf("first match = %s, want exact-city group first", got[0].Station.ID)
	}
	if got[1].Station.ID != "fuzzy" {
		t.Errorf("second match = %s, want fuzzy", got[1].Station.ID)
	}
}

func TestBestMatchForStation(t *testing.T) {
	m := newMatcher()

	station := models.Station{ID: "s1", Name: "Petron QC", Brand: "Petron", City: "Quezon City"}
	prices := []models.PriceRecord{
		record("Caltex", "Cebu", 64),          // invalid, dropped
		record("Petron", "NCR", 65.5),         // 0.7 + 0.3*0.9 = 0.97
		record("Petron", "Quezon City", 65.0), // 1.0
	}

	got := m.BestMatchForStation(station, prices)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if !got[0].Price.CommonPrice.Equal(decimal.NewFromFloat(65.0)) {
		t.Errorf("highest confidence match should be the exact-city record, got %v", got[0].Price.CommonPrice)
	}
}
