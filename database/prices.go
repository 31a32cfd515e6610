package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/angeles-renjo/gasph-sub000/models"
)

const priceColumns = "id, area, brand, fuel_type, min_price, max_price, common_price, period_start"

// PriceService is the official price store: read access to the latest
// bulletin batch plus the batch import the admin surface uses.
type PriceService struct {
	db *sql.DB
}

// NewPriceService builds the store.
func NewPriceService(db *sql.DB) *PriceService {
	return &PriceService{db: db}
}

// LatestOfficial returns every record of the most recent bulletin period.
func (s *PriceService) LatestOfficial(ctx context.Context) ([]models.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+priceColumns+`
		FROM official_prices
		WHERE period_start = (SELECT MAX(period_start) FROM official_prices)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest official prices: %w", err)
	}
	defer rows.Close()
	return scanPriceRecords(rows)
}

// ByAreaBrand returns the latest-period records for one area and brand. The
// strings are matched as stored; fuzzy reconciliation happens in the engine,
// not in SQL.
func (s *PriceService) ByAreaBrand(ctx context.Context, area, brand string) ([]models.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+priceColumns+`
		FROM official_prices
		WHERE LOWER(area) = LOWER(?) AND LOWER(brand) = LOWER(?)
		  AND period_start = (SELECT MAX(period_start) FROM official_prices)`,
		area, brand)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s/%s: %w", area, brand, err)
	}
	defer rows.Close()
	return scanPriceRecords(rows)
}

// ImportBatch stores one bulletin period as a single transaction. Records
// are immutable once ingested, so the import only ever inserts.
func (s *PriceService) ImportBatch(ctx context.Context, records []models.PriceRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("empty price batch: %w", models.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, record := range records {
		id := record.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx, `INSERT
			INTO official_prices (`+priceColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, record.Area, record.Brand, record.FuelType,
			record.MinPrice, record.MaxPrice, record.CommonPrice, record.PeriodStart)
		if err != nil {
			return fmt.Errorf("failed to insert price record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price batch: %w", err)
	}

	log.Infof("imported %d official price records", len(records))
	return nil
}

func scanPriceRecords(rows *sql.Rows) ([]models.PriceRecord, error) {
	var records []models.PriceRecord
	for rows.Next() {
		var r models.PriceRecord
		if err := rows.Scan(&r.ID, &r.Area, &r.Brand, &r.FuelType,
			&r.MinPrice, &r.MaxPrice, &r.CommonPrice, &r.PeriodStart); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
