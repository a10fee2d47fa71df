package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/jobs"
	"github.com/yungbote/unidine-backend/internal/platform/ctxutil"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/services"
)

/*
Context is the execution handle for a single job run.
It wraps:
	- the request-scoped context (timeouts, cancellation),
	- the DB handle handlers use for their own writes,
	- the job_run row being executed,
	- the notifier for lifecycle events.
Handlers never write job_run directly; they report through Progress, Fail and Succeed.
*/
type Context struct {
	Ctx     context.Context
	DB      *gorm.DB
	Job     *types.JobRun
	Repo    repos.JobRunRepo
	Notify  services.JobNotifier
	payload map[string]any
}

// NewContext decodes the job payload eagerly. A malformed payload decodes to an
// empty map; handlers validate the fields they need.
func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo, notify services.JobNotifier) *Context {
	c := &Context{
		Ctx:    ctxutil.Default(ctx),
		DB:     db,
		Job:    job,
		Repo:   repo,
		Notify: notify,
	}
	_ = c.decodePayload()
	c.applyTraceData()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	c.payload = m
	return nil
}

// applyTraceData carries the enqueuing request's trace and request ids into the run.
func (c *Context) applyTraceData() {
	payload := c.Payload()
	t := ctxutil.Trace{
		TraceID:   payloadString(payload, "trace_id"),
		RequestID: payloadString(payload, "request_id"),
	}
	if !t.Empty() {
		c.Ctx = ctxutil.WithTrace(c.Ctx, t)
	}
}

func payloadString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

// Progress persists a non-terminal stage update. A canceled run is left untouched.
func (c *Context) Progress(stage string, pct int, msg string) {
	if c == nil {
		return
	}
	now := time.Now().UTC()
	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, []string{jobs.StatusCanceled}, map[string]interface{}{
			"stage":        stage,
			"progress":     pct,
			"message":      msg,
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if !ok {
			return
		}
	}
	if c.Job != nil {
		c.Job.Stage = stage
		c.Job.Progress = pct
		c.Job.Message = msg
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobProgress(c.Job.OwnerUserID, c.Job, stage, pct, msg)
	}
}

/*
Fail marks the run failed and clears its lock.
Attempts are kept, so the DB worker retries the run after the retry delay until
attempts reach the configured maximum.
*/
func (c *Context) Fail(stage string, err error) {
	if c == nil {
		return
	}
	now := time.Now().UTC()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, []string{jobs.StatusCanceled}, map[string]interface{}{
			"status":        jobs.StatusFailed,
			"stage":         stage,
			"message":       "",
			"error":         msg,
			"last_error_at": now,
			"locked_at":     nil,
			"updated_at":    now,
		})
		if !ok {
			return
		}
	}
	if c.Job != nil {
		c.Job.Status = jobs.StatusFailed
		c.Job.Stage = stage
		c.Job.Message = ""
		c.Job.Error = msg
		c.Job.LastErrorAt = &now
		c.Job.LockedAt = nil
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobFailed(c.Job.OwnerUserID, c.Job, stage, msg)
	}
}

// Succeed stores result as JSON on job_run.result and marks the run terminal.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil {
		return
	}
	now := time.Now().UTC()
	res := datatypes.JSON([]byte(`{}`))
	if result != nil {
		if b, err := json.Marshal(result); err == nil {
			res = datatypes.JSON(b)
		}
	}
	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, []string{jobs.StatusCanceled}, map[string]interface{}{
			"status":       jobs.StatusSucceeded,
			"stage":        finalStage,
			"progress":     100,
			"message":      "",
			"error":        "",
			"result":       res,
			"locked_at":    nil,
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if !ok {
			return
		}
	}
	if c.Job != nil {
		c.Job.Status = jobs.StatusSucceeded
		c.Job.Stage = finalStage
		c.Job.Progress = 100
		c.Job.Message = ""
		c.Job.Error = ""
		c.Job.Result = res
		c.Job.LockedAt = nil
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
	if c.Notify != nil && c.Job != nil {
		c.Notify.JobDone(c.Job.OwnerUserID, c.Job)
	}
}
