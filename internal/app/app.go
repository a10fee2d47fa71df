package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/db"
	"github.com/yungbote/unidine-backend/internal/http"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	dbService    *db.DatabaseService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})
	metrics := observability.Init(log)

	dbService, err := db.NewDatabaseService(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := dbService.DB()
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			_ = dbService.Close()
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	sqlDB, _ := theDB.DB()
	handlerset := wireHandlers(log, cfg, serviceset, sqlDB)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the job worker (DB poller or Temporal) and the metrics collectors.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(a.Log, a.DB, a.Cfg.DB.Driver)
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
	}
	a.Metrics.StartJobQueueCollector(ctx, a.Log, a.Repos.JobRun)

	if a.Services.TemporalWorker != nil {
		if err := a.Services.TemporalWorker.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	if a.Services.JobWorker != nil {
		a.Services.JobWorker.Start(ctx)
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Shutdown stops accepting requests, then stops the workers and waits for
// in-flight jobs.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	err := a.Server.Shutdown(ctx)
	a.Close()
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.JobWorker != nil {
		a.Services.JobWorker.Wait()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
