package app

import (
	"strings"
	"time"

	"github.com/yungbote/unidine-backend/internal/data/db"
	"github.com/yungbote/unidine-backend/internal/jobs/worker"
	"github.com/yungbote/unidine-backend/internal/platform/envutil"
	"github.com/yungbote/unidine-backend/internal/platform/instagram"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/platform/openai"
	"github.com/yungbote/unidine-backend/internal/platform/places"
	"github.com/yungbote/unidine-backend/internal/platform/redisx"
	"github.com/yungbote/unidine-backend/internal/services"
	"github.com/yungbote/unidine-backend/internal/temporalx"
)

const serviceName = "unidine-backend"

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	SaveThreshold float64
	Merge         services.MergeConfig

	Webhook         services.WebhookConfig
	WebhookRate     float64
	WebhookBurst    int
	WebhookDedupTTL time.Duration
	RunWorker       bool
	AutoMigrate     bool

	DB        db.Config
	Redis     redisx.Config
	OpenAI    openai.Config
	Places    places.Config
	Instagram instagram.Config
	Worker    worker.Config
	Temporal  temporalx.Config
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		Environment:    envutil.String("APP_ENV", "development"),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: envutil.Seconds("ACCESS_TOKEN_TTL", 3600),

		SaveThreshold: envutil.Float("EXTRACTION_SAVE_THRESHOLD", services.DefaultSaveThreshold),
		Merge: services.MergeConfig{
			MatchPolicy:       envutil.String("RESTAURANT_MATCH_POLICY", services.MatchPolicyExact),
			MaxAttempts:       envutil.Int("MERGE_MAX_ATTEMPTS", services.DefaultMergeAttempts),
			EnrichmentTimeout: envutil.Seconds("ENRICHMENT_TIMEOUT_SECONDS", 5),
		},

		Webhook: services.WebhookConfig{
			VerifyToken: envutil.String("INSTAGRAM_VERIFY_TOKEN", ""),
			AppSecret:   envutil.String("INSTAGRAM_APP_SECRET", ""),
		},
		WebhookRate:     envutil.Float("WEBHOOK_RATE_PER_SECOND", 10),
		WebhookBurst:    envutil.Int("WEBHOOK_RATE_BURST", 20),
		WebhookDedupTTL: envutil.Duration("WEBHOOK_DEDUP_TTL", 24*time.Hour),
		RunWorker:       envutil.Bool("RUN_WORKER", true),
		AutoMigrate:     envutil.Bool("DB_AUTO_MIGRATE", true),

		DB:        db.ConfigFromEnv(),
		Redis:     redisx.ConfigFromEnv(),
		OpenAI:    openai.ConfigFromEnv(),
		Places:    places.ConfigFromEnv(),
		Instagram: instagram.ConfigFromEnv(),
		Worker:    worker.ConfigFromEnv(),
		Temporal:  temporalx.LoadConfig(),
	}

	if cfg.SaveThreshold < 0 || cfg.SaveThreshold > 1 {
		log.Warn("EXTRACTION_SAVE_THRESHOLD out of range; using default", "value", cfg.SaveThreshold)
		cfg.SaveThreshold = services.DefaultSaveThreshold
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}
	if cfg.Webhook.AppSecret == "" {
		log.Warn("INSTAGRAM_APP_SECRET not set; webhook signatures are not verified")
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
