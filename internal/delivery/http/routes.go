package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prebuiltcheck/backend/config"
	"github.com/sirupsen/logrus"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log logrus.FieldLogger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	limited := RateLimitMiddleware(cfg.RateLimit.PerIP)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/compare", limited, handler.Compare)
		v1.GET("/comparisons", handler.RecentComparisons)
	}

	// Legacy path still called by the web front-end
	router.POST("/api/scrape", limited, handler.Compare)

	return router
}
