package jobrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/unidine-backend/internal/domain/jobs"
)

const (
	pollInterval      = 2 * time.Second
	continueTickLimit = 500
	continueHistory   = 10000
)

// Workflow drives one job_run row. The workflow ID is the job id. A failed run
// with attempts left returns a retryable error so the workflow retry policy
// schedules another attempt.
func Workflow(ctx workflow.Context) error {
	jobID := strings.TrimSpace(workflow.GetInfo(ctx).WorkflowExecution.ID)
	if jobID == "" {
		return fmt.Errorf("jobrun: missing job_id")
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	for ticks := 1; ; ticks++ {
		var out TickResult
		if err := workflow.ExecuteActivity(ctx, ActivityTick, jobID).Get(ctx, &out); err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(out.Status)) {
		case jobs.StatusSucceeded, jobs.StatusCanceled:
			return nil
		case jobs.StatusFailed:
			msg := fmt.Sprintf("job failed (type=%s stage=%s attempts=%d)", out.JobType, out.Stage, out.Attempts)
			if out.Retryable {
				return temporal.NewApplicationError(msg, "JobFailed")
			}
			return temporal.NewNonRetryableApplicationError(msg, "JobFailed", nil)
		}

		if err := workflow.Sleep(ctx, pollInterval); err != nil {
			return err
		}
		if shouldContinueAsNew(ctx, ticks) {
			return workflow.NewContinueAsNewError(ctx, workflow.GetInfo(ctx).WorkflowType.Name)
		}
	}
}

func shouldContinueAsNew(ctx workflow.Context, ticks int) bool {
	if ticks >= continueTickLimit {
		return true
	}
	info := workflow.GetInfo(ctx)
	return info != nil && info.GetCurrentHistoryLength() >= continueHistory
}
