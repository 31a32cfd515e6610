package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/angeles-renjo/gasph-sub000/aggregator"
	"github.com/angeles-renjo/gasph-sub000/database"
	"github.com/angeles-renjo/gasph-sub000/lifecycle"
	"github.com/angeles-renjo/gasph-sub000/models"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
)

const defaultRadiusKm = 5.0

// Handlers contains all HTTP handlers.
type Handlers struct {
	aggregator *aggregator.Service
	lifecycle  *lifecycle.Service
	prices     *database.PriceService
	stations   *database.StationService
	norm       *normalizer.Normalizer
}

// NewHandlers creates a new handlers instance.
func NewHandlers(agg *aggregator.Service, lc *lifecycle.Service, prices *database.PriceService, stations *database.StationService, norm *normalizer.Normalizer) *Handlers {
	return &Handlers{
		aggregator: agg,
		lifecycle:  lc,
		prices:     prices,
		stations:   stations,
		norm:       norm,
	}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStationPrices returns the reconciled per-fuel price view for one
// station.
func (h *Handlers) GetStationPrices(c *gin.Context) {
	station, err := h.stations.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	prices, err := h.aggregator.BestPricesForStation(c.Request.Context(), *station)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"station": station,
		"prices":  prices,
	})
}

// GetAreaPrices returns the ranked best-price lists per fuel type for an
// area, addressed either by city name or by a lat/lng/radius circle.
func (h *Handlers) GetAreaPrices(c *gin.Context) {
	var (
		stations []models.Station
		hint     aggregator.AreaHint
		err      error
	)

	city := c.Query("city")
	latStr, lngStr := c.Query("lat"), c.Query("lng")

	switch {
	case city != "":
		canonical := h.norm.NormalizeCity(city)
		stations, err = h.stations.ByCity(c.Request.Context(), canonical)
		hint = aggregator.AreaHint{Name: canonical}
	case latStr != "" && lngStr != "":
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid coordinates"})
			return
		}
		radius := defaultRadiusKm
		if r, parseErr := strconv.ParseFloat(c.Query("radius"), 64); parseErr == nil && r > 0 {
			radius = r
		}
		stations, err = h.stations.WithinRadius(c.Request.Context(), lat, lng, radius)
		hint = aggregator.AreaHint{Name: c.Query("name"), Latitude: lat, Longitude: lng}
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "city or lat/lng is required"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	prices, err := h.aggregator.BestPricesForArea(c.Request.Context(), stations, hint)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"area":   hint.Name,
		"prices": prices,
	})
}

// SubmitReport accepts a community price report.
func (h *Handlers) SubmitReport(c *gin.Context) {
	var req models.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := h.stations.ByID(c.Request.Context(), req.StationID); err != nil {
		h.respondError(c, err)
		return
	}

	report, err := h.lifecycle.Submit(c.Request.Context(), req.StationID, req.FuelType, req.Price, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// Vote applies a confirm/dispute vote to a report.
func (h *Handlers) Vote(c *gin.Context) {
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	report, err := h.lifecycle.Vote(c.Request.Context(), c.Param("id"), req.UserID, *req.IsUpvote)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// StartNewCycle begins a fresh reporting cycle, force-expiring all
// outstanding community reports. Administrative.
func (h *Handlers) StartNewCycle(c *gin.Context) {
	cycle, err := h.lifecycle.StartNewCycle(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cycle)
}

// GetActiveCycle returns the currently active reporting cycle.
func (h *Handlers) GetActiveCycle(c *gin.Context) {
	cycle, err := h.lifecycle.ActiveCycle(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cycle)
}

// ImportPrices ingests one official bulletin batch and stamps the active
// cycle. Administrative.
func (h *Handlers) ImportPrices(c *gin.Context) {
	var req struct {
		Records []models.PriceRecord `json:"records" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.prices.ImportBatch(c.Request.Context(), req.Records); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.lifecycle.MarkOfficialImport(c.Request.Context()); err != nil {
		// The batch is in; a missing active cycle only loses the stamp.
		log.Warnf("could not stamp official import: %v", err)
	}

	c.JSON(http.StatusCreated, models.MessageResponse{Message: "price batch imported"})
}

// respondError maps engine errors onto HTTP statuses. Internal reasons are
// logged, never leaked; users get a plain retry message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrCycleResetConflict):
		log.Errorf("cycle reset conflict: %v", err)
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "cycle reset failed, please retry"})
	case errors.Is(err, models.ErrUpstreamUnavailable):
		log.Errorf("all upstreams unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "data temporarily unavailable, please retry"})
	default:
		log.Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "something went wrong, please retry"})
	}
}
