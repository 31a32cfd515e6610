package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/angeles-renjo/gasph-sub000/aggregator"
	"github.com/angeles-renjo/gasph-sub000/config"
	"github.com/angeles-renjo/gasph-sub000/database"
	"github.com/angeles-renjo/gasph-sub000/handlers"
	"github.com/angeles-renjo/gasph-sub000/lifecycle"
	"github.com/angeles-renjo/gasph-sub000/middleware"
	"github.com/angeles-renjo/gasph-sub000/normalizer"
	"github.com/angeles-renjo/gasph-sub000/scoring"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.InitializeSchema(db); err != nil {
		log.Fatal("Failed to initialize database schema:", err)
	}

	norm := normalizer.NewDefault()
	scorer := scoring.New(norm, cfg.ReportValidityWindow)

	prices := database.NewPriceService(db)
	stations := database.NewStationService(db)
	reports := lifecycle.New(db, norm, cfg.ReportValidityWindow, cfg.CycleLength)
	agg := aggregator.New(prices, stations, reports, norm, scorer)

	router := setupRouter(cfg, agg, reports, prices, stations, norm)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func setupRouter(cfg *config.Config, agg *aggregator.Service, reports *lifecycle.Service, prices *database.PriceService, stations *database.StationService, norm *normalizer.Normalizer) *gin.Engine {
	router := gin.Default()

	h := handlers.NewHandlers(agg, reports, prices, stations, norm)

	router.GET("/health", h.HealthCheck)

	public := router.Group("/api/v1")
	{
		public.GET("/stations/:id/prices", h.GetStationPrices)
		public.GET("/prices/area", h.GetAreaPrices)
		public.GET("/cycles/active", h.GetActiveCycle)
		public.POST("/reports", h.SubmitReport)
		public.POST("/reports/:id/vote", h.Vote)
	}

	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.AdminKeyMiddleware(cfg.AdminAPIKey))
	{
		admin.POST("/cycles", h.StartNewCycle)
		admin.POST("/prices/import", h.ImportPrices)
	}

	return router
}
