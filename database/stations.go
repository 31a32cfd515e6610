package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/angeles-renjo/gasph-sub000/models"
)

const stationColumns = "id, name, brand, city, latitude, longitude, amenities, operating_hours, status"

const earthRadiusKm = 6371.0

// StationService is the station store. Stations are written by an import
// process elsewhere; this service only reads.
type StationService struct {
	db *sql.DB
}

// NewStationService builds the store.
func NewStationService(db *sql.DB) *StationService {
	return &StationService{db: db}
}

// ByID fetches one station.
func (s *StationService) ByID(ctx context.Context, id string) (*models.Station, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+stationColumns+`
		FROM stations
		WHERE id = ?`, id)

	station, err := scanStation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("station %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read station: %w", err)
	}
	return station, nil
}

// ByCity fetches the stations of one city. City strings are compared as
// stored; callers pass the canonical form.
func (s *StationService) ByCity(ctx context.Context, city string) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stationColumns+`
		FROM stations
		WHERE LOWER(city) = LOWER(?)`, city)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations for %s: %w", city, err)
	}
	defer rows.Close()
	return scanStations(rows)
}

// WithinRadius fetches every station within radiusKm of the point. The
// table is small enough to filter in process with spherical geometry rather
// than pushing the math into SQL.
func (s *StationService) WithinRadius(ctx context.Context, lat, lng, radiusKm float64) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stationColumns+` FROM stations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	all, err := scanStations(rows)
	if err != nil {
		return nil, err
	}

	center := s2.LatLngFromDegrees(lat, lng)
	var nearby []models.Station
	for _, station := range all {
		point := s2.LatLngFromDegrees(station.Latitude, station.Longitude)
		if center.Distance(point).Radians()*earthRadiusKm <= radiusKm {
			nearby = append(nearby, station)
		}
	}
	return nearby, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (*models.Station, error) {
	var station models.Station
	var amenities, hours sql.NullString
	err := row.Scan(&station.ID, &station.Name, &station.Brand, &station.City,
		&station.Latitude, &station.Longitude, &amenities, &hours, &station.Status)
	if err != nil {
		return nil, err
	}
	if amenities.Valid && amenities.String != "" {
		// Amenities ride in a JSON column; a broken value is dirty data,
		// not a failed read.
		_ = json.Unmarshal([]byte(amenities.String), &station.Amenities)
	}
	station.OperatingHours = hours.String
	return &station, nil
}

func scanStations(rows *sql.Rows) ([]models.Station, error) {
	var stations []models.Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, *station)
	}
	return stations, rows.Err()
}
