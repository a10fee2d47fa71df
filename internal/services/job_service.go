package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/jobs"
	"github.com/yungbote/unidine-backend/internal/platform/apierr"
	"github.com/yungbote/unidine-backend/internal/platform/ctxutil"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const JobTypeInstagramEvent = "instagram_event"

type JobService interface {
	// Enqueue persists a queued job. Owner may be uuid.Nil for system work whose
	// owner is resolved by the handler.
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error)
	Dispatch(dbc dbctx.Context, jobID uuid.UUID) error
	GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	Temporal() bool
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.JobRunRepo
	notify JobNotifier

	temporal          temporalsdkclient.Client
	temporalTaskQueue string
}

// NewJobService builds the job front door. With a nil Temporal client jobs stay
// in job_run for the DB worker to claim.
func NewJobService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.JobRunRepo,
	notify JobNotifier,
	tc temporalsdkclient.Client,
	taskQueue string,
) JobService {
	if notify == nil {
		notify = NewJobNotifier(baseLog)
	}
	return &jobService{
		db:                db,
		log:               baseLog.With("service", "JobService"),
		repo:              repo,
		notify:            notify,
		temporal:          tc,
		temporalTaskQueue: strings.TrimSpace(taskQueue),
	}
}

func (s *jobService) Temporal() bool { return s != nil && s.temporal != nil }

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	trace := ctxutil.TraceFrom(dbc.Ctx)
	for key, val := range map[string]string{"trace_id": trace.TraceID, "request_id": trace.RequestID} {
		if _, ok := payload[key]; !ok && val != "" {
			payload[key] = val
		}
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	now := time.Now().UTC()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      jobs.StatusQueued,
		Stage:       "queued",
		Message:     "Queued",
		Payload:     datatypes.JSON(b),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.repo.Create(dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.notify.JobCreated(ownerUserID, job)

	// Inside a real transaction the caller dispatches after commit.
	if isDBTransaction(dbc.Tx) {
		s.log.Debug("job enqueued inside transaction; awaiting dispatch after commit", "job_id", job.ID, "job_type", job.JobType)
		return job, nil
	}
	if err := s.dispatch(dbc.Ctx, job.ID, job.JobType); err != nil {
		return job, err
	}
	return job, nil
}

type txCommitter interface {
	Commit() error
	Rollback() error
}

// gorm.DB values are cloned freely, so pointer comparison cannot detect a transaction.
func isDBTransaction(db *gorm.DB) bool {
	if db == nil || db.Statement == nil || db.Statement.ConnPool == nil {
		return false
	}
	_, ok := db.Statement.ConnPool.(txCommitter)
	return ok
}

// Dispatch starts the Temporal workflow for a queued job. Without Temporal it
// is a no-op and the DB worker claims the row.
func (s *jobService) Dispatch(dbc dbctx.Context, jobID uuid.UUID) error {
	if jobID == uuid.Nil {
		return fmt.Errorf("missing job id")
	}
	if s.temporal == nil {
		return nil
	}
	ctx := ctxutil.Default(dbc.Ctx)
	rows, err := s.repo.GetByIDs(dbctx.Context{Ctx: ctx, Tx: s.db}, []uuid.UUID{jobID})
	if err != nil {
		return err
	}
	if len(rows) == 0 || rows[0] == nil {
		return fmt.Errorf("job %s not found", jobID)
	}
	return s.dispatch(ctx, jobID, rows[0].JobType)
}

func (s *jobService) dispatch(ctx context.Context, jobID uuid.UUID, jobType string) error {
	if s.temporal == nil {
		return nil
	}
	ctx = ctxutil.Default(ctx)
	err := s.startTemporalJobWorkflow(ctx, jobID, jobType)
	if err == nil {
		return nil
	}
	var already *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &already) {
		return nil
	}

	now := time.Now().UTC()
	_ = s.repo.UpdateFields(dbctx.Context{Ctx: ctx, Tx: s.db}, jobID, map[string]interface{}{
		"status":        jobs.StatusFailed,
		"stage":         "dispatch",
		"error":         err.Error(),
		"last_error_at": now,
		"locked_at":     nil,
		"updated_at":    now,
	})
	if rows, rerr := s.repo.GetByIDs(dbctx.Context{Ctx: ctx, Tx: s.db}, []uuid.UUID{jobID}); rerr == nil && len(rows) > 0 && rows[0] != nil {
		s.notify.JobFailed(rows[0].OwnerUserID, rows[0], "dispatch", err.Error())
	}
	return fmt.Errorf("start temporal workflow: %w", err)
}

func (s *jobService) startTemporalJobWorkflow(ctx context.Context, jobID uuid.UUID, jobType string) error {
	tq := s.temporalTaskQueue
	if tq == "" {
		tq = "unidine"
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                    jobID.String(),
		TaskQueue:             tq,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    30 * time.Second,
			BackoffCoefficient: 1.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
	_, err := s.temporal.ExecuteWorkflow(ctx, opts, jobType)
	return err
}

func (s *jobService) GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", errors.New("not authenticated"))
	}
	if jobID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_job_id", errors.New("missing job id"))
	}
	job, err := s.repo.GetForOwner(dbc, userID, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apierr.NotFound("job_not_found", errors.New("job not found"))
	}
	return job, nil
}
