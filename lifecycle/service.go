package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angeles-renjo/gasph-sub000/models"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
)

// Service manages the community report state machine: submission, voting,
// expiration and the periodic cycle reset. Reports move Submitted -> Active
// -> Expired and are never physically deleted; expiration only makes them
// invisible to readers.
//
// Every mutation is one database transaction. Vote counters and the vote
// ledger move together, and a cycle reset is all-or-nothing.
type Service struct {
	db             *sql.DB
	norm           *normalizer.Normalizer
	validityWindow time.Duration
	cycleLength    time.Duration

	now func() time.Time
}

// New builds the lifecycle service. validityWindow is how long a report
// stays visible (default deployment: 24h); cycleLength is the reporting
// cycle span (default: 7 days).
func New(db *sql.DB, norm *normalizer.Normalizer, validityWindow, cycleLength time.Duration) *Service {
	return &Service{
		db:             db,
		norm:           norm,
		validityWindow: validityWindow,
		cycleLength:    cycleLength,
		now:            time.Now,
	}
}

// Submit creates a community report. The submitter's implicit confirmation
// counts as the first upvote and lands in the vote ledger in the same
// transaction, so counters always equal recorded votes.
func (s *Service) Submit(ctx context.Context, stationID, fuelType string, price decimal.Decimal, userID string) (*models.CommunityReport, error) {
	if strings.TrimSpace(stationID) == "" || strings.TrimSpace(fuelType) == "" || strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("station, fuel type and user are required: %w", models.ErrInvalidInput)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("submitted price must be positive: %w", models.ErrInvalidInput)
	}

	now := s.now()
	report := &models.CommunityReport{
		ID:         uuid.New().String(),
		StationID:  stationID,
		FuelType:   s.norm.NormalizeFuelType(fuelType),
		Price:      price,
		UserID:     userID,
		ReportedAt: now,
		ExpiresAt:  now.Add(s.validityWindow),
		Upvotes:    1,
		Downvotes:  0,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT
		INTO community_reports (id, station_id, fuel_type, price, user_id, reported_at, expires_at, upvotes, downvotes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.StationID, report.FuelType, report.Price,
		report.UserID, report.ReportedAt, report.ExpiresAt, report.Upvotes, report.Downvotes)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT
		INTO report_votes (report_id, user_id, is_upvote, updated_at)
		VALUES (?, ?, ?, ?)`,
		report.ID, userID, true, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record submitter vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit report submission: %w", err)
	}

	log.Infof("report %s submitted for station %s (%s)", report.ID, stationID, report.FuelType)
	return report, nil
}

// Vote applies a user's vote to a report: at most one vote per user per
// report. Voting the same direction twice is a no-op; flipping direction
// moves exactly one unit between the counters. The read-modify-write runs
// under a row lock so racing votes cannot be lost.
func (s *Service) Vote(ctx context.Context, reportID, userID string, isUpvote bool) (*models.CommunityReport, error) {
	if strings.TrimSpace(reportID) == "" || strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("report and user are required: %w", models.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	report := &models.CommunityReport{}
	err = tx.QueryRowContext(ctx, `SELECT id, station_id, fuel_type, price, user_id, reported_at, expires_at, upvotes, downvotes
		FROM community_reports
		WHERE id = ?
		FOR UPDATE`,
		reportID).Scan(&report.ID, &report.StationID, &report.FuelType, &report.Price,
		&report.UserID, &report.ReportedAt, &report.ExpiresAt, &report.Upvotes, &report.Downvotes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s: %w", reportID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var prior bool
	hasPrior := true
	err = tx.QueryRowContext(ctx, `SELECT is_upvote
		FROM report_votes
		WHERE report_id = ? AND user_id = ?`,
		reportID, userID).Scan(&prior)
	if err == sql.ErrNoRows {
		hasPrior = false
	} else if err != nil {
		return nil, fmt.Errorf("failed to read vote ledger: %w", err)
	}

	switch {
	case !hasPrior:
		_, err = tx.ExecContext(ctx, `INSERT
			INTO report_votes (report_id, user_id, is_upvote, updated_at)
			VALUES (?, ?, ?, ?)`,
			reportID, userID, isUpvote, s.now())
		if err != nil {
			return nil, fmt.Errorf("failed to record vote: %w", err)
		}
		if isUpvote {
			report.Upvotes++
		} else {
			report.Downvotes++
		}

	case prior == isUpvote:
		// Same direction again: nothing changes.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit vote: %w", err)
		}
		return report, nil

	default:
		_, err = tx.ExecContext(ctx, `UPDATE report_votes
			SET is_upvote = ?, updated_at = ?
			WHERE report_id = ? AND user_id = ?`,
			isUpvote, s.now(), reportID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to update vote: %w", err)
		}
		if isUpvote {
			report.Upvotes++
			report.Downvotes--
		} else {
			report.Upvotes--
			report.Downvotes++
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE community_reports
		SET upvotes = ?, downvotes = ?
		WHERE id = ?`,
		report.Upvotes, report.Downvotes, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to update vote counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit vote: %w", err)
	}
	return report, nil
}

// StartNewCycle deactivates the current cycle, opens a new one and
// force-expires every live report, as one atomic unit. A partial reset is a
// data-integrity failure, so any error rolls the whole thing back and
// surfaces as a cycle reset conflict.
func (s *Service) StartNewCycle(ctx context.Context) (*models.ReportingCycle, error) {
	now := s.now()
	cycle := &models.ReportingCycle{
		StartDate: now,
		EndDate:   now.Add(s.cycleLength),
		IsActive:  true,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE reporting_cycles
		SET is_active = FALSE
		WHERE is_active = TRUE`); err != nil {
		return nil, fmt.Errorf("deactivating current cycle: %w", models.ErrCycleResetConflict)
	}

	res, err := tx.ExecContext(ctx, `INSERT
		INTO reporting_cycles (start_date, end_date, is_active)
		VALUES (?, ?, TRUE)`,
		cycle.StartDate, cycle.EndDate)
	if err != nil {
		return nil, fmt.Errorf("creating new cycle: %w", models.ErrCycleResetConflict)
	}
	if cycle.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("reading new cycle id: %w", models.ErrCycleResetConflict)
	}

	// Force-expire everything still live by moving expiry into the past.
	expiredAt := now.Add(-time.Second)
	if _, err := tx.ExecContext(ctx, `UPDATE community_reports
		SET expires_at = ?
		WHERE expires_at > ?`,
		expiredAt, now); err != nil {
		return nil, fmt.Errorf("expiring outstanding reports: %w", models.ErrCycleResetConflict)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing cycle reset: %w", models.ErrCycleResetConflict)
	}

	log.Infof("reporting cycle %d started, runs until %s", cycle.ID, cycle.EndDate.Format(time.RFC3339))
	return cycle, nil
}

// MarkOfficialImport stamps the active cycle with the time the official
// price batch landed.
func (s *Service) MarkOfficialImport(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reporting_cycles
		SET official_import_at = ?
		WHERE is_active = TRUE`,
		s.now())
	if err != nil {
		return fmt.Errorf("failed to stamp official import: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("no active cycle: %w", models.ErrNotFound)
	}
	return nil
}

// ActiveCycle returns the currently active reporting cycle, if any.
func (s *Service) ActiveCycle(ctx context.Context) (*models.ReportingCycle, error) {
	cycle := &models.ReportingCycle{}
	err := s.db.QueryRowContext(ctx, `SELECT id, start_date, end_date, is_active, official_import_at
		FROM reporting_cycles
		WHERE is_active = TRUE`).
		Scan(&cycle.ID, &cycle.StartDate, &cycle.EndDate, &cycle.IsActive, &cycle.OfficialImportAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active cycle: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read active cycle: %w", err)
	}
	return cycle, nil
}

// ActiveForStation returns the station's non-expired reports, newest first.
// This is the read side the aggregator consumes.
func (s *Service) ActiveForStation(ctx context.Context, stationID string) ([]models.CommunityReport, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, station_id, fuel_type, price, user_id, reported_at, expires_at, upvotes, downvotes
		FROM community_reports
		WHERE station_id = ? AND expires_at > ?
		ORDER BY reported_at DESC`,
		stationID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.CommunityReport
	for rows.Next() {
		var r models.CommunityReport
		if err := rows.Scan(&r.ID, &r.StationID, &r.FuelType, &r.Price,
			&r.UserID, &r.ReportedAt, &r.ExpiresAt, &r.Upvotes, &r.Downvotes); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
