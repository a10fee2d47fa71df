package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/unidine-backend/internal/data/db"
	types "github.com/yungbote/unidine-backend/internal/domain"
	jobstatus "github.com/yungbote/unidine-backend/internal/domain/jobs"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

type JobRunRepo interface {
	Create(dbc dbctx.Context, jobs []*types.JobRun) ([]*types.JobRun, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.JobRun, error)
	GetForOwner(dbc dbctx.Context, ownerUserID, id uuid.UUID) (*types.JobRun, error)
	ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.JobRun, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
	Heartbeat(dbc dbctx.Context, id uuid.UUID) error
	CountByStatus(dbc dbctx.Context, jobType string) (map[string]int64, error)
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{
		db:  db,
		log: baseLog.With("repo", "JobRunRepo"),
	}
}

func (r *jobRunRepo) Create(dbc dbctx.Context, jobs []*types.JobRun) ([]*types.JobRun, error) {
	if len(jobs) == 0 {
		return []*types.JobRun{}, nil
	}
	if err := dbc.Conn(r.db).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRunRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.JobRun, error) {
	var out []*types.JobRun
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRunRepo) GetForOwner(dbc dbctx.Context, ownerUserID, id uuid.UUID) (*types.JobRun, error) {
	if ownerUserID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var job types.JobRun
	err := dbc.Conn(r.db).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ClaimNextRunnable picks the oldest queued job, a failed job that is due for
// retry, or a running job whose heartbeat went stale, and marks it running.
func (r *jobRunRepo) ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.JobRun, error) {
	now := time.Now().UTC()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.JobRun
	err := dbc.Conn(r.db).Transaction(func(txx *gorm.DB) error {
		var job types.JobRun
		q := txx
		if db.SupportsRowLocks(txx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		q = q.Where(`
        (
          status = ?
          OR (
            status = ?
            AND attempts < ?
            AND (last_error_at IS NULL OR last_error_at < ?)
          )
          OR (
            status = ?
            AND heartbeat_at IS NOT NULL
            AND heartbeat_at < ?
          )
        )
      `, jobstatus.StatusQueued, jobstatus.StatusFailed, maxAttempts, retryCutoff, jobstatus.StatusRunning, staleCutoff).
			Order("created_at ASC")
		qErr := q.First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.JobRun{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":       jobstatus.StatusRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}
		job.Status = jobstatus.StatusRunning
		job.Attempts++
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *jobRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return dbc.Conn(r.db).
		Model(&types.JobRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *jobRunRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}

	q := dbc.Conn(r.db).
		Model(&types.JobRun{}).
		Where("id = ?", id)
	if len(disallowedStatuses) == 1 {
		q = q.Where("status <> ?", disallowedStatuses[0])
	} else if len(disallowedStatuses) > 1 {
		q = q.Where("status NOT IN ?", disallowedStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRunRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return dbc.Conn(r.db).
		Model(&types.JobRun{}).
		Where("id = ? AND status = ?", id, jobstatus.StatusRunning).
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

func (r *jobRunRepo) CountByStatus(dbc dbctx.Context, jobType string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	q := dbc.Conn(r.db).Model(&types.JobRun{}).Select("status, COUNT(*) AS count")
	if jobType != "" {
		q = q.Where("job_type = ?", jobType)
	}
	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
