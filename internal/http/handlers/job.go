package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/unidine-backend/internal/http/response"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/services"
)

type JobHandler struct {
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.GetByIDForRequestUser(dbctx.Context{Ctx: c.Request.Context()}, jobID)
	if err != nil {
		response.RespondServiceError(c, "job_lookup_failed", err)
		return
	}
	if job == nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", nil)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}
