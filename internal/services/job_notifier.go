package services

import (
	"github.com/google/uuid"

	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type JobNotifier interface {
	JobCreated(userID uuid.UUID, job *types.JobRun)
	JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string)
	JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string)
	JobDone(userID uuid.UUID, job *types.JobRun)
}

type jobNotifier struct {
	log *logger.Logger
}

// NewJobNotifier reports job lifecycle changes to the log.
func NewJobNotifier(log *logger.Logger) JobNotifier {
	return &jobNotifier{log: log.With("service", "JobNotifier")}
}

func (n *jobNotifier) JobCreated(userID uuid.UUID, job *types.JobRun) {
	if job == nil {
		return
	}
	n.log.Debug("job created", "user_id", userID, "job_id", job.ID, "job_type", job.JobType)
}

func (n *jobNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string) {
	if job == nil {
		return
	}
	n.log.Debug("job progress", "user_id", userID, "job_id", job.ID, "job_type", job.JobType, "stage", stage, "progress", progress, "message", message)
}

func (n *jobNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
	if job == nil {
		return
	}
	n.log.Warn("job failed", "user_id", userID, "job_id", job.ID, "job_type", job.JobType, "stage", stage, "error", errorMessage)
}

func (n *jobNotifier) JobDone(userID uuid.UUID, job *types.JobRun) {
	if job == nil {
		return
	}
	n.log.Info("job done", "user_id", userID, "job_id", job.ID, "job_type", job.JobType)
}
