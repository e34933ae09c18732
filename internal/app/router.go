package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ridesharing/internal/handler"
	"ridesharing/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler     *handler.TripHandler
	FareHandler     *handler.FareHandler
	MatchingHandler *handler.MatchingHandler
	LocationHandler *handler.LocationHandler
	ResponseStore   middleware.ResponseStore
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.Metrics())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Trip lifecycle. Trip mutations are the endpoints clients retry,
		// so the idempotency layer is scoped here.
		trips := v1.Group("/trips", middleware.Idempotency(deps.ResponseStore))
		{
			trips.POST("", deps.TripHandler.RequestTrip)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.PATCH("/:id/accept", deps.TripHandler.AcceptTrip)
			trips.PATCH("/:id/start", deps.TripHandler.StartTrip)
			trips.PATCH("/:id/complete", deps.TripHandler.CompleteTrip)
			trips.PATCH("/:id/cancel", deps.TripHandler.CancelTrip)
			trips.GET("/rider/:riderId/active", deps.TripHandler.ActiveByRider)
			trips.GET("/rider/:riderId/history", deps.TripHandler.HistoryByRider)
			trips.GET("/driver/:driverId/active", deps.TripHandler.ActiveByDriver)
			trips.GET("/driver/:driverId/history", deps.TripHandler.HistoryByDriver)
		}

		// Fare quotes and coupon catalog.
		fares := v1.Group("/fare")
		{
			fares.POST("/calculate", deps.FareHandler.Calculate)
			fares.GET("/strategies", deps.FareHandler.Strategies)
			fares.POST("/coupons", deps.FareHandler.CreateCoupon)
			fares.GET("/coupons", deps.FareHandler.ListCoupons)
			fares.GET("/coupons/:code", deps.FareHandler.GetCoupon)
			fares.PUT("/coupons/:code", deps.FareHandler.UpdateCoupon)
			fares.DELETE("/coupons/:code", deps.FareHandler.DeleteCoupon)
		}

		// Matching.
		matching := v1.Group("/matching")
		{
			matching.PATCH("/driver/:id/location", deps.MatchingHandler.UpdateDriverLocation)
			matching.PATCH("/rider/:id/location", deps.MatchingHandler.UpdateRiderLocation)
			matching.GET("/drivers/nearby", deps.MatchingHandler.NearbyDrivers)
			matching.POST("/match/:strategy", deps.MatchingHandler.Match)
		}

		// Location tracking.
		locations := v1.Group("/locations")
		{
			locations.POST("", deps.LocationHandler.Ingest)
			locations.GET("/active", deps.LocationHandler.Active)
			locations.GET("/stats", deps.LocationHandler.Stats)
			locations.GET("/driver/:driverId/latest", deps.LocationHandler.Latest)
			locations.GET("/driver/:driverId/history", deps.LocationHandler.History)
			locations.DELETE("/driver/:driverId", deps.LocationHandler.Remove)
		}
	}

	return router
}
