package jobrun

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/jobs"
	jobrt "github.com/yungbote/unidine-backend/internal/jobs/runtime"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/services"
)

type Activities struct {
	Log         *logger.Logger
	DB          *gorm.DB
	Jobs        repos.JobRunRepo
	Registry    *jobrt.Registry
	Notify      services.JobNotifier
	MaxAttempts int
}

// Tick executes the job's registered handler once and reports the resulting
// state. A terminal run is reported without running the handler again.
func (a *Activities) Tick(ctx context.Context, jobID string) (TickResult, error) {
	res := TickResult{JobID: strings.TrimSpace(jobID)}
	if a == nil || a.DB == nil || a.Jobs == nil || a.Registry == nil {
		return res, fmt.Errorf("jobrun: activity not configured")
	}
	id, err := uuid.Parse(res.JobID)
	if err != nil || id == uuid.Nil {
		return res, fmt.Errorf("jobrun: invalid job_id %q", res.JobID)
	}

	job, err := a.loadJob(ctx, id)
	if err != nil {
		return res, err
	}
	if job == nil {
		return res, fmt.Errorf("jobrun: job %s not found", id)
	}
	if job.Status == jobs.StatusSucceeded || job.Status == jobs.StatusCanceled || job.Terminal(a.maxAttempts()) {
		return a.result(job), nil
	}

	stopHB := a.startHeartbeat(ctx, id)
	defer stopHB()

	now := time.Now().UTC()
	if err := a.DB.WithContext(ctx).
		Model(&types.JobRun{}).
		Where("id = ? AND status <> ?", id, jobs.StatusCanceled).
		Updates(map[string]any{
			"status":       jobs.StatusRunning,
			"attempts":     gorm.Expr("attempts + 1"),
			"locked_at":    now,
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error; err != nil {
		return res, fmt.Errorf("jobrun: mark running: %w", err)
	}
	job.Status = jobs.StatusRunning
	job.Attempts++
	job.LockedAt = &now
	job.HeartbeatAt = &now

	start := time.Now()
	outcome := a.run(ctx, job)
	observability.Current().ObserveActivity(ActivityTick, job.JobType, outcome, time.Since(start))

	updated, err := a.loadJob(ctx, id)
	if err != nil {
		return res, err
	}
	if updated == nil {
		return res, fmt.Errorf("jobrun: job %s not found after tick", id)
	}
	// A handler that returns nil without reporting a terminal state would
	// otherwise leave the run in running forever.
	if outcome == "ok" && updated.Status == jobs.StatusRunning {
		a.logger().Warn("Job handler returned without terminal status; marking succeeded", "job_id", id, "job_type", updated.JobType)
		jc := jobrt.NewContext(ctx, a.DB, updated, a.Jobs, a.Notify)
		jc.Succeed("done", nil)
		updated = jc.Job
	}
	return a.result(updated), nil
}

func (a *Activities) run(ctx context.Context, job *types.JobRun) (outcome string) {
	jc := jobrt.NewContext(ctx, a.DB, job, a.Jobs, a.Notify)
	h, ok := a.Registry.Get(job.JobType)
	if !ok {
		jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
		return "missing_handler"
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger().Error("Job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
			jc.Fail("panic", fmt.Errorf("panic: %v", r))
			outcome = "panic"
		}
	}()
	if err := h.Run(jc); err != nil {
		jc.Fail("run", err)
		return "error"
	}
	return "ok"
}

func (a *Activities) result(job *types.JobRun) TickResult {
	return TickResult{
		JobID:     job.ID.String(),
		JobType:   job.JobType,
		Status:    job.Status,
		Stage:     job.Stage,
		Progress:  job.Progress,
		Message:   job.Message,
		Attempts:  job.Attempts,
		Retryable: job.Status == jobs.StatusFailed && !job.Terminal(a.maxAttempts()),
	}
}

func (a *Activities) maxAttempts() int {
	if a.MaxAttempts > 0 {
		return a.MaxAttempts
	}
	return 5
}

func (a *Activities) logger() *logger.Logger {
	if a.Log == nil {
		return logger.Nop()
	}
	return a.Log
}

func (a *Activities) loadJob(ctx context.Context, id uuid.UUID) (*types.JobRun, error) {
	rows, err := a.Jobs.GetByIDs(dbctx.Context{Ctx: ctx, Tx: a.DB}, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, nil
	}
	return rows[0], nil
}

// startHeartbeat records Temporal heartbeats every 10s and refreshes
// job_run.heartbeat_at every 30s until the returned stop func is called.
func (a *Activities) startHeartbeat(ctx context.Context, id uuid.UUID) func() {
	done := make(chan struct{})
	go func() {
		temporalHB := time.NewTicker(10 * time.Second)
		defer temporalHB.Stop()
		dbHB := time.NewTicker(30 * time.Second)
		defer dbHB.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-temporalHB.C:
				activity.RecordHeartbeat(ctx)
			case <-dbHB.C:
				_ = a.Jobs.Heartbeat(dbctx.Context{Ctx: ctx, Tx: a.DB}, id)
			}
		}
	}()
	return func() { close(done) }
}
