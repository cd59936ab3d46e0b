package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/internal/api"
	"github.com/pageza/macromeal-backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	healthHandler *api.HealthHandler,
	recipeHandler *api.RecipeHandler,
	recommendationHandler *api.RecommendationHandler,
	rateLimiter *middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	if rateLimiter != nil {
		v1.Use(rateLimiter.RateLimitMiddleware())
	}

	recipeHandler.RegisterRoutes(v1)
	recommendationHandler.RegisterRoutes(v1)

	return router
}
