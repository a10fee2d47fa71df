package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/unidine-backend/internal/http/handlers"
	httpMW "github.com/yungbote/unidine-backend/internal/http/middleware"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string
	WebhookLimit   httpMW.RateLimitConfig

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	ExtractionHandler *httpH.ExtractionHandler
	RestaurantHandler *httpH.RestaurantHandler
	InstagramHandler  *httpH.InstagramHandler
	WebhookHandler    *httpH.WebhookHandler
	JobHandler        *httpH.JobHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestIDs())
	r.Use(httpMW.Access(cfg.Log, cfg.Metrics, "/healthcheck", "/metrics"))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Instagram webhooks (public, signed)
	if cfg.WebhookHandler != nil {
		hooks := r.Group("/webhooks")
		hooks.GET("/instagram", cfg.WebhookHandler.Verify)
		hooks.POST("/instagram", httpMW.RateLimit(cfg.WebhookLimit), cfg.WebhookHandler.Receive)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Extraction
		if cfg.ExtractionHandler != nil {
			protected.POST("/extract", cfg.ExtractionHandler.Extract)
			protected.POST("/extract/save", cfg.ExtractionHandler.ExtractAndSave)
			protected.GET("/extract/history", cfg.ExtractionHandler.History)
		}

		// Restaurants
		if cfg.RestaurantHandler != nil {
			protected.GET("/restaurants", cfg.RestaurantHandler.List)
			protected.POST("/restaurants", cfg.RestaurantHandler.Create)
			protected.GET("/restaurants/stats", cfg.RestaurantHandler.Stats)
			protected.GET("/restaurants/cuisines", cfg.RestaurantHandler.Cuisines)
			protected.GET("/restaurants/:id", cfg.RestaurantHandler.Get)
			protected.PATCH("/restaurants/:id/status", cfg.RestaurantHandler.UpdateStatus)
			protected.DELETE("/restaurants/:id", cfg.RestaurantHandler.Delete)
		}

		// Instagram
		if cfg.InstagramHandler != nil {
			protected.GET("/instagram/accounts", cfg.InstagramHandler.ListAccounts)
			protected.POST("/instagram/accounts", cfg.InstagramHandler.ConnectAccount)
			protected.PATCH("/instagram/accounts/:id/settings", cfg.InstagramHandler.UpdateSettings)
			protected.GET("/instagram/templates", cfg.InstagramHandler.ListTemplates)
			protected.POST("/instagram/templates", cfg.InstagramHandler.CreateTemplate)
			protected.GET("/instagram/interactions", cfg.InstagramHandler.ListInteractions)
		}

		// Job
		if cfg.JobHandler != nil {
			protected.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})

	return r
}
