package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"finance-tax-api/internal/config"
	"finance-tax-api/internal/middleware"
	"finance-tax-api/internal/models"
	"finance-tax-api/internal/services"
)

// ServiceName and Version identify the API in health responses
const (
	ServiceName = "finance-tax-api"
	Version     = "1.0.0"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	TaxService services.TaxServiceInterface
	StartedAt  time.Time
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, routerConfig *RouterConfig) {
	taxHandler := NewTaxHandler(routerConfig.TaxService)

	startedAt := routerConfig.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		countries := routerConfig.TaxService.ListCountries(c.Request.Context())
		c.JSON(http.StatusOK, models.HealthCheck{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Version:   Version,
			Services: map[string]string{
				"service":    ServiceName,
				"rule_sets":  fmt.Sprintf("%d loaded", len(countries)),
				"deployment": config.GetDeploymentMode(),
			},
			Uptime: time.Since(startedAt),
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		tax := v1.Group("/tax")
		{
			// Engine operations
			tax.POST("/income", taxHandler.CalculateIncomeTax)
			tax.POST("/forward", taxHandler.ComposeForwardTax)
			tax.POST("/reverse", taxHandler.DecomposeReverseTax)
			tax.POST("/purchase", taxHandler.AnalyzePurchase)

			// Calculators
			tax.POST("/stamp-duty", taxHandler.CalculateStampDuty)
			tax.POST("/vehicle-import", taxHandler.CalculateVehicleImportTax)
			tax.POST("/vat", taxHandler.CalculateVAT)
			tax.POST("/fuel-estimate", taxHandler.EstimateFuelTax)

			// Rule set information
			tax.GET("/countries", taxHandler.ListCountries)
			tax.GET("/categories", taxHandler.ListCategories)
			tax.GET("/info/:country", taxHandler.GetTaxInfo)
		}
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, cfg *config.Config, logger *logrus.Logger) {
	router.Use(middleware.Recovery(logger))

	// Request ID and correlation ID
	router.Use(middleware.RequestID())
	router.Use(middleware.CorrelationID())

	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	maxBody := cfg.Request.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	router.Use(middleware.RequestSizeLimit(maxBody))

	// Content type validation for POST requests
	router.Use(middleware.ContentTypeValidation("application/json"))
	router.Use(middleware.RequestValidation())

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimiter(logger, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	router.Use(middleware.StructuredLogger(logger))

	// Performance monitoring (log requests over 1 second)
	router.Use(middleware.PerformanceMonitor(logger, time.Second))

	router.Use(middleware.ErrorTracker(logger))
}

// SetupDevelopmentRoutes adds development-only routes
func SetupDevelopmentRoutes(router *gin.Engine, routerConfig *RouterConfig) {
	dev := router.Group("/dev")
	{
		// Configuration info
		dev.GET("/config", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"supported_countries": config.GetSupportedCountries(),
				"loaded_rule_sets":    routerConfig.TaxService.ListCountries(c.Request.Context()),
				"configuration_guide": config.GetTaxConfigurationGuide(),
				"api_version":         Version,
				"swagger_url":         "/swagger/index.html",
			})
		})
	}
}
