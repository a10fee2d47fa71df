package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/jobs/pipeline/instagram_event"
	jobruntime "github.com/yungbote/unidine-backend/internal/jobs/runtime"
	"github.com/yungbote/unidine-backend/internal/jobs/worker"
	"github.com/yungbote/unidine-backend/internal/modules/extraction"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/platform/redisx"
	"github.com/yungbote/unidine-backend/internal/services"
	"github.com/yungbote/unidine-backend/internal/temporalx/temporalworker"
)

type Services struct {
	Auth              services.AuthService
	Merge             services.MergeService
	Extraction        services.ExtractionService
	Restaurant        services.RestaurantService
	InstagramAccounts services.InstagramAccountService
	InstagramWebhook  services.InstagramWebhookService
	InteractionAI     services.InteractionAI

	JobNotifier    services.JobNotifier
	JobService     services.JobService
	JobRegistry    *jobruntime.Registry
	JobWorker      *worker.Worker
	TemporalWorker *temporalworker.Runner
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	authService := services.NewAuthService(db, log, repos.User, cfg.JWTSecretKey, cfg.AccessTokenTTL)

	matcher, err := extraction.NewMatcher(extraction.LexiconFromEnv(log))
	if err != nil {
		return Services{}, fmt.Errorf("init matcher: %w", err)
	}
	mergeService := services.NewMergeService(db, log, repos.Restaurant, clients.Places, clients.Events, cfg.Merge)
	extractionService := services.NewExtractionService(db, log, extraction.NewExtractor(matcher), mergeService, repos.ExtractionHistory)
	restaurantService := services.NewRestaurantService(db, log, repos.Restaurant, mergeService, clients.Events)
	accountService := services.NewInstagramAccountService(db, log, repos.InstagramAccount, repos.ResponseTemplate, repos.Interaction)
	interactionAI := services.NewInteractionAI(log, clients.OpenAI)

	jobNotifier := services.NewJobNotifier(log)
	jobService := services.NewJobService(db, log, repos.JobRun, jobNotifier, clients.Temporal, cfg.Temporal.TaskQueue)

	var dedup services.Deduper
	if clients.Redis != nil {
		dedup = redisx.NewDeduper(clients.Redis, "unidine:webhook:", cfg.WebhookDedupTTL)
	}
	webhookService := services.NewInstagramWebhookService(log, cfg.Webhook, repos.InstagramAccount, jobService, dedup)

	// Job handlers
	jobRegistry := jobruntime.NewRegistry()
	instagramEvent := instagram_event.New(
		db,
		log,
		repos.InstagramAccount,
		repos.Interaction,
		repos.ResponseTemplate,
		extractionService,
		interactionAI,
		clients.Instagram,
	)
	if err := jobRegistry.Register(instagramEvent); err != nil {
		return Services{}, err
	}

	var (
		dbWorker       *worker.Worker
		temporalRunner *temporalworker.Runner
	)
	if cfg.RunWorker {
		if clients.Temporal != nil {
			r, err := temporalworker.NewRunner(log, cfg.Temporal, temporalworker.Options{
				Concurrency: cfg.Worker.Concurrency,
				MaxAttempts: cfg.Worker.MaxAttempts,
			}, clients.Temporal, db, repos.JobRun, jobRegistry, jobNotifier)
			if err != nil {
				return Services{}, fmt.Errorf("init temporal worker: %w", err)
			}
			temporalRunner = r
		} else {
			dbWorker = worker.NewWorker(db, log, repos.JobRun, jobRegistry, jobNotifier, cfg.Worker)
		}
	}

	return Services{
		Auth:              authService,
		Merge:             mergeService,
		Extraction:        extractionService,
		Restaurant:        restaurantService,
		InstagramAccounts: accountService,
		InstagramWebhook:  webhookService,
		InteractionAI:     interactionAI,
		JobNotifier:       jobNotifier,
		JobService:        jobService,
		JobRegistry:       jobRegistry,
		JobWorker:         dbWorker,
		TemporalWorker:    temporalRunner,
	}, nil
}
