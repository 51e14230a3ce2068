package routes

import (
	"example.com/backstage/services/inventory/api/handlers"
	"example.com/backstage/services/inventory/api/middleware"
	"example.com/backstage/services/inventory/config"
	"example.com/backstage/services/inventory/internal/metrics"
	"example.com/backstage/services/inventory/internal/ratelimit"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Dependencies are what the routes need from the application
type Dependencies struct {
	Service      service.Service
	Limiter      ratelimit.Limiter
	RateLimits   config.RateLimitConfig
	Metrics      *metrics.Collector
	HealthChecks map[string]handlers.Pinger
	Log          *logrus.Logger
}

// Rate limit scopes
const (
	ScopeLogin                = "login"
	ScopeRegister             = "register"
	ScopePasswordReset        = "password_reset"
	ScopePasswordResetConfirm = "password_reset_confirm"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	log := deps.Log

	healthHandler := handlers.NewHealthHandler(deps.Metrics, deps.HealthChecks, log)
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", healthHandler.Metrics)

	api := r.Group("/api/v1")

	limit := func(scope string, rule config.RateLimitRule) gin.HandlerFunc {
		return middleware.RateLimit(deps.Limiter, ratelimit.Rule{
			Scope:  scope,
			Limit:  rule.Limit,
			Window: rule.Window,
		}, deps.Metrics, log)
	}

	// Account routes
	authHandler := handlers.NewAuthHandler(deps.Service, log)
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", limit(ScopeRegister, deps.RateLimits.Register), authHandler.Register)
		authRoutes.POST("/login", limit(ScopeLogin, deps.RateLimits.Login), authHandler.Login)
		authRoutes.POST("/password-reset", limit(ScopePasswordReset, deps.RateLimits.PasswordReset), authHandler.RequestPasswordReset)
		authRoutes.POST("/password-reset/confirm", limit(ScopePasswordResetConfirm, deps.RateLimits.PasswordResetConfirm), authHandler.ConfirmPasswordReset)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(deps.Service, log))
	protected.GET("/auth/me", authHandler.Me)

	// Catalog routes
	catalogHandler := handlers.NewCatalogHandler(deps.Service, log)
	supermarkets := protected.Group("/supermarkets")
	{
		supermarkets.POST("", catalogHandler.CreateSupermarket)
		supermarkets.GET("", catalogHandler.ListSupermarkets)
		supermarkets.GET("/:id", catalogHandler.GetSupermarket)
		supermarkets.PUT("/:id", catalogHandler.UpdateSupermarket)
		supermarkets.DELETE("/:id", catalogHandler.DeleteSupermarket)
		supermarkets.GET("/:id/subchains", catalogHandler.ListSubchains)
		supermarkets.POST("/:id/subchains", catalogHandler.CreateSubchain)
	}
	subchains := protected.Group("/subchains")
	{
		subchains.GET("/:id", catalogHandler.GetSubchain)
		subchains.PUT("/:id", catalogHandler.UpdateSubchain)
		subchains.DELETE("/:id", catalogHandler.DeleteSubchain)
	}
	products := protected.Group("/products")
	{
		products.POST("", catalogHandler.CreateProduct)
		products.GET("", catalogHandler.ListProducts)
		products.GET("/:id", catalogHandler.GetProduct)
		products.PUT("/:id", catalogHandler.UpdateProduct)
		products.DELETE("/:id", catalogHandler.DeleteProduct)
	}

	// Aggregate routes
	deliveryHandler := handlers.NewDeliveryHandler(deps.Service, log)
	deliveries := protected.Group("/deliveries")
	{
		deliveries.POST("", deliveryHandler.CreateDelivery)
		deliveries.GET("", deliveryHandler.ListDeliveries)
		deliveries.GET("/:id", deliveryHandler.GetDelivery)
		deliveries.PUT("/:id", deliveryHandler.UpdateDelivery)
		deliveries.PATCH("/:id/status", deliveryHandler.UpdateDeliveryStatus)
		deliveries.DELETE("/:id", deliveryHandler.DeleteDelivery)
	}
	returns := protected.Group("/returns")
	{
		returns.POST("", deliveryHandler.CreateReturn)
		returns.GET("", deliveryHandler.ListReturns)
		returns.GET("/:id", deliveryHandler.GetReturn)
		returns.PUT("/:id", deliveryHandler.UpdateReturn)
		returns.DELETE("/:id", deliveryHandler.DeleteReturn)
	}

	// Report routes
	reportHandler := handlers.NewReportHandler(deps.Service, log)
	reports := protected.Group("/reports")
	{
		reports.GET("/summary", reportHandler.Summary)
		reports.GET("/:file", reportHandler.Export)
	}
}
