package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/oilpulse/internal/api/handlers"
	"github.com/irfndi/oilpulse/internal/cache"
	"github.com/irfndi/oilpulse/internal/database"
)

// Dependencies are the collaborators the routes are built from. DB, Redis
// and Cache are optional.
type Dependencies struct {
	Datasets handlers.DatasetProvider
	DB       *database.PostgresDB
	Redis    *database.RedisClient
	Cache    *cache.AnalysisCache
	Version  string
	Logger   *logrus.Logger
}

// Endpoint is one entry of the index listing.
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var endpoints = []Endpoint{
	{http.MethodGet, "/health", "Service health, dataset and host memory"},
	{http.MethodGet, "/api/v1/oil-data", "Price observations, optional start_date and end_date"},
	{http.MethodGet, "/api/v1/events", "Event catalog, optional category"},
	{http.MethodGet, "/api/v1/model-results", "Change-point model results with annualized figures"},
	{http.MethodGet, "/api/v1/regime-summary", "Model results plus empirical regime statistics"},
	{http.MethodGet, "/api/v1/price-data", "Derived series for charting"},
	{http.MethodGet, "/api/v1/statistics", "Corpus statistics"},
	{http.MethodGet, "/api/v1/event-impact", "All events ranked by impact, optional window_days"},
	{http.MethodGet, "/api/v1/event-impact/:event_name", "Impact of one event, optional window_days"},
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Datasets, deps.Version, deps.Logger)
	if deps.DB != nil {
		healthHandler.AddCheck("database", deps.DB)
	}
	if deps.Redis != nil {
		healthHandler.AddCheck("redis", deps.Redis)
	}
	dataHandler := handlers.NewDataHandler(deps.Datasets)
	analysisHandler := handlers.NewAnalysisHandler(deps.Datasets, deps.Cache, deps.Logger)

	router.GET("/", index(deps.Version))
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/oil-data", dataHandler.GetOilData)
		v1.GET("/events", dataHandler.GetEvents)
		v1.GET("/price-data", dataHandler.GetPriceData)

		v1.GET("/model-results", analysisHandler.GetModelResults)
		v1.GET("/regime-summary", analysisHandler.GetRegimeSummary)
		v1.GET("/statistics", analysisHandler.GetStatistics)

		impact := v1.Group("/event-impact")
		{
			impact.GET("", analysisHandler.GetAllEventImpacts)
			impact.GET("/:event_name", analysisHandler.GetEventImpact)
		}

		if deps.Cache != nil {
			cacheHandler := handlers.NewCacheHandler(deps.Cache)
			cacheGroup := v1.Group("/cache")
			{
				cacheGroup.GET("/stats", cacheHandler.GetCacheStats)
				cacheGroup.POST("/clear", cacheHandler.ClearCache)
			}
		}
	}
}

func index(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "oilpulse",
			"version":   version,
			"endpoints": endpoints,
		})
	}
}
