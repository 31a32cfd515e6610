package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Station lifecycle states.
const (
	StationActive            = "active"
	StationInactive          = "inactive"
	StationTemporarilyClosed = "temporarily_closed"
	StationPermanentlyClosed = "permanently_closed"
)

// Confidence display levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// PriceRecord is one row of the official periodic price bulletin for a
// brand+area+fuel type. A zero CommonPrice means "not reported", not free.
// Records are immutable once ingested; one batch exists per period.
type PriceRecord struct {
	ID          string          `json:"id"`
	Area        string          `json:"area"`
	Brand       string          `json:"brand"`
	FuelType    string          `json:"fuel_type"`
	MinPrice    decimal.Decimal `json:"min_price"`
	MaxPrice    decimal.Decimal `json:"max_price"`
	CommonPrice decimal.Decimal `json:"common_price"`
	PeriodStart time.Time       `json:"period_start"`
}

// HasValidPrice reports whether the record carries a usable common price.
func (p PriceRecord) HasValidPrice() bool {
	return p.CommonPrice.IsPositive()
}

// Station is a physical gas station.
type Station struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	City           string   `json:"city"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Amenities      []string `json:"amenities,omitempty"`
	OperatingHours string   `json:"operating_hours,omitempty"`
	Status         string   `json:"status"`
}

// CommunityReport is a user-submitted price point for a station, valid for a
// rolling window. Reports are never deleted; an expired report is invisible.
type CommunityReport struct {
	ID         string          `json:"id"`
	StationID  string          `json:"station_id"`
	FuelType   string          `json:"fuel_type"`
	Price      decimal.Decimal `json:"price"`
	UserID     string          `json:"user_id"`
	ReportedAt time.Time       `json:"reported_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Upvotes    int             `json:"upvotes"`
	Downvotes  int             `json:"downvotes"`
}

// IsExpired reports whether the report has left its validity window.
func (r CommunityReport) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// ReportingCycle is an administrative 7-day window. At most one cycle is
// active at a time; starting a new cycle force-expires all live reports.
type ReportingCycle struct {
	ID               int64      `json:"id"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          time.Time  `json:"end_date"`
	IsActive         bool       `json:"is_active"`
	OfficialImportAt *time.Time `json:"official_import_at,omitempty"`
}

// MatchResult pairs a price record with a candidate station. Ephemeral,
// never persisted.
type MatchResult struct {
	Price      PriceRecord
	Station    Station
	Confidence float64
	ExactCity  bool
}

// OfficialPrice is the official min/common/max triple carried on an
// aggregated entry.
type OfficialPrice struct {
	MinPrice    decimal.Decimal `json:"min_price"`
	MaxPrice    decimal.Decimal `json:"max_price"`
	CommonPrice decimal.Decimal `json:"common_price"`
	PeriodStart time.Time       `json:"period_start"`
}

// Verification carries the community signal for an aggregated entry. Votes
// are metadata for the confirm/dispute affordance, not a ranking input.
type Verification struct {
	ConfirmedCount int    `json:"confirmed_count"`
	DisputedCount  int    `json:"disputed_count"`
	RecencyLabel   string `json:"recency_label"`
}

// AggregatedPrice is the reconciled view for one station+fuel type, blending
// official and community data. Ephemeral.
type AggregatedPrice struct {
	StationID       string           `json:"station_id"`
	StationName     string           `json:"station_name"`
	FuelType        string           `json:"fuel_type"`
	Official        *OfficialPrice   `json:"official,omitempty"`
	CommunityPrice  *decimal.Decimal `json:"community_price,omitempty"`
	Verification    *Verification    `json:"verification,omitempty"`
	MatchConfidence float64          `json:"match_confidence"`
	ConfidenceLevel string           `json:"confidence_level"`
	DistanceKm      float64          `json:"distance_km,omitempty"`
}

// HasValidPrice reports whether the entry has anything a user could pay:
// a community price, or an official common price that is actually reported.
func (a AggregatedPrice) HasValidPrice() bool {
	if a.CommunityPrice != nil && a.CommunityPrice.IsPositive() {
		return true
	}
	return a.Official != nil && a.Official.CommonPrice.IsPositive()
}

// DisplayPrice is the price the presentation layer should show: the latest
// community price when one exists, the official common price otherwise.
// The boolean is false when neither source reported a price.
func (a AggregatedPrice) DisplayPrice() (decimal.Decimal, bool) {
	if a.CommunityPrice != nil && a.CommunityPrice.IsPositive() {
		return *a.CommunityPrice, true
	}
	if a.Official != nil && a.Official.CommonPrice.IsPositive() {
		return a.Official.CommonPrice, true
	}
	return decimal.Zero, false
}

// SubmitReportRequest is the body for POST /api/v1/reports.
type SubmitReportRequest struct {
	StationID string          `json:"station_id" binding:"required"`
	FuelType  string          `json:"fuel_type" binding:"required"`
	Price     decimal.Decimal `json:"price" binding:"required"`
	UserID    string          `json:"user_id" binding:"required"`
}

// VoteRequest is the body for POST /api/v1/reports/:id/vote.
type VoteRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	IsUpvote *bool  `json:"is_upvote" binding:"required"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the standard success envelope for mutations.
type MessageResponse struct {
	Message string `json:"message"`
}
