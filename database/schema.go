package database

import (
	"database/sql"
	"fmt"
)

// InitializeSchema creates the engine's tables if they do not exist yet.
func InitializeSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS official_prices (
			id VARCHAR(36) PRIMARY KEY,
			area VARCHAR(128) NOT NULL,
			brand VARCHAR(128) NOT NULL,
			fuel_type VARCHAR(64) NOT NULL,
			min_price DECIMAL(10,2) NOT NULL DEFAULT 0,
			max_price DECIMAL(10,2) NOT NULL DEFAULT 0,
			common_price DECIMAL(10,2) NOT NULL DEFAULT 0,
			period_start DATE NOT NULL,
			INDEX idx_period (period_start),
			INDEX idx_area_brand (area, brand)
		)`,
		`CREATE TABLE IF NOT EXISTS stations (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			brand VARCHAR(128) NOT NULL,
			city VARCHAR(128) NOT NULL,
			latitude DOUBLE NOT NULL DEFAULT 0,
			longitude DOUBLE NOT NULL DEFAULT 0,
			amenities TEXT,
			operating_hours VARCHAR(128),
			status VARCHAR(32) NOT NULL DEFAULT 'active',
			INDEX idx_city (city)
		)`,
		`CREATE TABLE IF NOT EXISTS community_reports (
			id VARCHAR(36) PRIMARY KEY,
			station_id VARCHAR(36) NOT NULL,
			fuel_type VARCHAR(64) NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			reported_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			upvotes INT NOT NULL DEFAULT 0,
			downvotes INT NOT NULL DEFAULT 0,
			INDEX idx_station_expiry (station_id, expires_at)
		)`,
		`CREATE TABLE IF NOT EXISTS report_votes (
			report_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			is_upvote BOOLEAN NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (report_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS reporting_cycles (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			official_import_at DATETIME NULL,
			INDEX idx_active (is_active)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
