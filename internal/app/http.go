package app

import (
	"database/sql"

	"github.com/yungbote/unidine-backend/internal/http"
	httpH "github.com/yungbote/unidine-backend/internal/http/handlers"
	httpMW "github.com/yungbote/unidine-backend/internal/http/middleware"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	Extraction *httpH.ExtractionHandler
	Restaurant *httpH.RestaurantHandler
	Instagram  *httpH.InstagramHandler
	Webhook    *httpH.WebhookHandler
	Job        *httpH.JobHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services, sqlDB *sql.DB) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	return Handlers{
		Health:     httpH.NewHealthHandler(pinger),
		Auth:       httpH.NewAuthHandler(services.Auth),
		Extraction: httpH.NewExtractionHandler(log, services.Extraction, cfg.SaveThreshold),
		Restaurant: httpH.NewRestaurantHandler(services.Restaurant),
		Instagram:  httpH.NewInstagramHandler(services.InstagramAccounts),
		Webhook:    httpH.NewWebhookHandler(log, services.InstagramWebhook),
		Job:        httpH.NewJobHandler(services.JobService),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		WebhookLimit: httpMW.RateLimitConfig{
			PerSecond: cfg.WebhookRate,
			Burst:     cfg.WebhookBurst,
		},
		AuthHandler:       handlers.Auth,
		AuthMiddleware:    middleware.Auth,
		ExtractionHandler: handlers.Extraction,
		RestaurantHandler: handlers.Restaurant,
		InstagramHandler:  handlers.Instagram,
		WebhookHandler:    handlers.Webhook,
		JobHandler:        handlers.Job,
		HealthHandler:     handlers.Health,
	})
}
