package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tradeflow/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		suppliers := v1.Group("/suppliers")
		suppliers.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
		{
			suppliers.GET("/search", handler.SearchSuppliersGET)
			suppliers.POST("/search", handler.SearchSuppliersPOST)
			suppliers.GET("/sources", handler.ListSources)
			suppliers.DELETE("/cache", handler.ClearCache)
		}
	}

	return router
}
