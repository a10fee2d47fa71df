package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	"github.com/yungbote/unidine-backend/internal/jobs/runtime"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/envutil"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/services"
)

type Config struct {
	Concurrency  int
	MaxAttempts  int
	PollInterval time.Duration
	RetryDelay   time.Duration
	StaleRunning time.Duration
	Heartbeat    time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Concurrency:  envutil.Int("WORKER_CONCURRENCY", 4),
		MaxAttempts:  envutil.Int("JOB_MAX_ATTEMPTS", 5),
		PollInterval: envutil.Duration("WORKER_POLL_INTERVAL", time.Second),
		RetryDelay:   envutil.Duration("JOB_RETRY_DELAY", 30*time.Second),
		StaleRunning: envutil.Duration("JOB_STALE_RUNNING", 30*time.Minute),
		Heartbeat:    envutil.Duration("JOB_HEARTBEAT_INTERVAL", 30*time.Second),
	}
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 30 * time.Second
	}
	if c.StaleRunning <= 0 {
		c.StaleRunning = 30 * time.Minute
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = 30 * time.Second
	}
	return c
}

// Worker polls job_run and executes claimed runs through the registry. It is
// the execution path when Temporal is not configured.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	notify   services.JobNotifier
	cfg      Config
	wg       sync.WaitGroup
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, notify services.JobNotifier, cfg Config) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
		cfg:      cfg.withDefaults(),
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting job worker pool", "concurrency", w.cfg.Concurrency, "job_types", w.registry.Types())
	for i := 0; i < w.cfg.Concurrency; i++ {
		workerID := i + 1
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLoop(ctx, workerID)
		}()
	}
}

// Wait blocks until every loop has observed ctx cancellation.
func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			for w.RunOnce(ctx, workerID) {
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// RunOnce claims and executes at most one run. It reports whether a run was claimed.
func (w *Worker) RunOnce(ctx context.Context, workerID int) bool {
	job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx, Tx: w.db}, w.cfg.MaxAttempts, w.cfg.RetryDelay, w.cfg.StaleRunning)
	if err != nil {
		w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
		return false
	}
	if job == nil {
		return false
	}

	stop := w.startHeartbeat(ctx, job.ID)
	defer stop()

	jc := runtime.NewContext(ctx, w.db, job, w.repo, w.notify)
	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job_type", "worker_id", workerID, "job_type", job.JobType, "job_id", job.ID)
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
		return true
	}

	start := time.Now()
	status := "ok"
	func() {
		defer func() {
			if r := recover(); r != nil {
				status = "panic"
				w.log.Error("Job handler panic", "worker_id", workerID, "job_id", job.ID, "job_type", job.JobType, "panic", r)
				jc.Fail("panic", fmt.Errorf("panic: %v", r))
			}
		}()
		if runErr := h.Run(jc); runErr != nil {
			status = "error"
			jc.Fail("run", runErr)
		}
	}()
	observability.Current().ObserveActivity("db_worker", job.JobType, status, time.Since(start))
	return true
}

// startHeartbeat refreshes job_run.heartbeat_at until stop is called, so a long
// handler that never reports progress is not reclaimed as stale.
func (w *Worker) startHeartbeat(ctx context.Context, id uuid.UUID) (stop func()) {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(w.cfg.Heartbeat)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				if err := w.repo.Heartbeat(dbctx.Context{Ctx: ctx, Tx: w.db}, id); err != nil {
					w.log.Warn("job heartbeat failed", "job_id", id, "error", err)
				}
			}
		}
	}()
	return func() { close(done) }
}
