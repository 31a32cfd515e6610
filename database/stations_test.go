package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/angeles-renjo/gasph-sub000/models"
)

var stationTestColumns = []string{
	"id", "name", "brand", "city", "latitude", "longitude", "amenities", "operating_hours", "status",
}

func newStationMock(t *testing.T) (*StationService, sqlmock.Sqlmock, func()) {
	t.Helper()
	var db *sql.DB
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return NewStationService(db), mock, func() { db.Close() }
}

func TestStationByID(t *testing.T) {
	svc, mock, done := newStationMock(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM stations WHERE id = (.+)").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(stationTestColumns).
			AddRow("s1", "Petron Commonwealth", "Petron", "Quezon City",
				14.6969, 121.0866, `["car wash","convenience store"]`, "24/7", "active"))

	station, err := svc.ByID(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ByID: unexpected error: %v", err)
	}
	if station.Name != "Petron Commonwealth" {
		t.Errorf("name = %q", station.Name)
	}
	if len(station.Amenities) != 2 {
		t.Errorf("amenities = %v, want 2 entries", station.Amenities)
	}
}

func TestStationByIDNotFound(t *testing.T) {
	svc, mock, done := newStationMock(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM stations WHERE id = (.+)").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.ByID(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStationsWithinRadius(t *testing.T) {
	svc, mock, done := newStationMock(t)
	defer done()

	// Quezon City memorial circle vs a station in Cebu: only the first is
	// within 10km of the QC query point.
	mock.ExpectQuery("SELECT (.+) FROM stations").
		WillReturnRows(sqlmock.NewRows(stationTestColumns).
			AddRow("near", "Petron Elliptical", "Petron", "Quezon City",
				14.6515, 121.0493, nil, "", "active").
			AddRow("far", "Shell Mactan", "Shell", "Cebu",
				10.3157, 123.8854, nil, "", "active"))

	stations, err := svc.WithinRadius(context.Background(), 14.6760, 121.0437, 10)
	if err != nil {
		t.Fatalf("WithinRadius: unexpected error: %v", err)
	}
	if len(stations) != 1 || stations[0].ID != "near" {
		t.Fatalf("expected only the nearby station, got %+v", stations)
	}
}
