package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	jobrt "github.com/yungbote/unidine-backend/internal/jobs/runtime"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/services"
	"github.com/yungbote/unidine-backend/internal/temporalx"
	"github.com/yungbote/unidine-backend/internal/temporalx/jobrun"
)

type Options struct {
	Concurrency int
	MaxAttempts int
	StartWait   time.Duration
}

type Runner struct {
	log *logger.Logger
	cfg temporalx.Config
	opt Options

	tc       temporalsdkclient.Client
	db       *gorm.DB
	jobRepo  repos.JobRunRepo
	registry *jobrt.Registry
	notify   services.JobNotifier
}

func NewRunner(
	log *logger.Logger,
	cfg temporalx.Config,
	opt Options,
	tc temporalsdkclient.Client,
	db *gorm.DB,
	jobRepo repos.JobRunRepo,
	registry *jobrt.Registry,
	notify services.JobNotifier,
) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if db == nil || jobRepo == nil || registry == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	if opt.Concurrency < 1 {
		opt.Concurrency = 1
	}
	if opt.StartWait <= 0 {
		opt.StartWait = time.Minute
	}
	return &Runner{
		log:      log.With("component", "TemporalWorker"),
		cfg:      cfg,
		opt:      opt,
		tc:       tc,
		db:       db,
		jobRepo:  jobRepo,
		registry: registry,
		notify:   notify,
	}, nil
}

// Start polls the task queue until ctx is cancelled. Start failures are retried
// with backoff for up to opt.StartWait.
func (r *Runner) Start(ctx context.Context) error {
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)
	deadline := time.Now().Add(r.opt.StartWait)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", r.cfg.TaskQueue, "workflows", r.registry.Types(), "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) && r.cfg.AutoRegisterNamespace {
			if err := temporalx.EnsureNamespace(ctx, r.cfg, r.log); err != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", r.cfg.Namespace, "error", err)
			}
		}
		if time.Now().After(deadline) {
			if errors.As(startErr, &nfe) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)
		time.Sleep(temporalx.Backoff(250*time.Millisecond, 5*time.Second, attempt))
	}
}

func (r *Runner) newWorker() worker.Worker {
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     r.opt.Concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: r.opt.Concurrency,
	})
	Register(w, r.registry, &jobrun.Activities{
		Log:         r.log,
		DB:          r.db,
		Jobs:        r.jobRepo,
		Registry:    r.registry,
		Notify:      r.notify,
		MaxAttempts: r.opt.MaxAttempts,
	})
	return w
}

// Register wires the job workflow under its generic name and under every
// registered job type, plus the tick activity.
func Register(w worker.Registry, registry *jobrt.Registry, acts *jobrun.Activities) {
	w.RegisterWorkflowWithOptions(jobrun.Workflow, workflow.RegisterOptions{Name: jobrun.WorkflowName})
	for _, jobType := range registry.Types() {
		w.RegisterWorkflowWithOptions(jobrun.Workflow, workflow.RegisterOptions{Name: jobType})
	}
	w.RegisterActivityWithOptions(acts.Tick, activity.RegisterOptions{Name: jobrun.ActivityTick})
}
