package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/http/response"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/services"
)

const maxExtractTextLen = 10000

type ExtractionHandler struct {
	log        *logger.Logger
	extraction services.ExtractionService
	threshold  float64
}

// NewExtractionHandler uses defaultThreshold for saves that do not name one; a
// non-positive value falls back to services.DefaultSaveThreshold.
func NewExtractionHandler(log *logger.Logger, extraction services.ExtractionService, defaultThreshold float64) *ExtractionHandler {
	if defaultThreshold <= 0 {
		defaultThreshold = services.DefaultSaveThreshold
	}
	return &ExtractionHandler{
		log:        log.With("handler", "ExtractionHandler"),
		extraction: extraction,
		threshold:  defaultThreshold,
	}
}

func readText(c *gin.Context, raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_text", errors.New("text is required"))
		return "", false
	}
	if len(text) > maxExtractTextLen {
		response.RespondError(c, http.StatusBadRequest, "text_too_long", errors.New("text exceeds 10000 bytes"))
		return "", false
	}
	return text, true
}

// POST /api/extract
func (h *ExtractionHandler) Extract(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	text, ok := readText(c, req.Text)
	if !ok {
		return
	}
	res := h.extraction.Extract(c.Request.Context(), text)
	if err := h.extraction.RecordHistory(dbctx.Context{Ctx: c.Request.Context()}, userID, text, res, nil); err != nil {
		h.log.Warn("record extraction history failed", "error", err, "user_id", userID)
	}
	response.RespondOK(c, res)
}

// POST /api/extract/save
func (h *ExtractionHandler) ExtractAndSave(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	var req struct {
		Text      string   `json:"text"`
		MediaLink string   `json:"media_link"`
		Threshold *float64 `json:"threshold"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	text, ok := readText(c, req.Text)
	if !ok {
		return
	}
	threshold := h.threshold
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			response.RespondError(c, http.StatusBadRequest, "invalid_threshold", errors.New("threshold must be within [0,1]"))
			return
		}
		threshold = *req.Threshold
	}

	rec, res, err := h.extraction.ExtractAndMaybeSave(c.Request.Context(), services.SaveRequest{
		Text:      text,
		UserID:    userID,
		Threshold: threshold,
		MediaLink: req.MediaLink,
		Source:    restaurants.SourceManual,
	})
	if err != nil {
		response.RespondServiceError(c, "save_failed", err)
		return
	}
	if err := h.extraction.RecordHistory(dbctx.Context{Ctx: c.Request.Context()}, userID, text, res, rec); err != nil {
		h.log.Warn("record extraction history failed", "error", err, "user_id", userID)
	}
	out := gin.H{"saved": rec != nil, "result": res}
	if rec != nil {
		out["restaurant"] = rec
	}
	response.RespondOK(c, out)
}

// GET /api/extract/history
func (h *ExtractionHandler) History(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	limit, offset := pagination(c)
	rows, total, err := h.extraction.ListHistory(dbctx.Context{Ctx: c.Request.Context()}, userID, limit, offset)
	if err != nil {
		response.RespondServiceError(c, "history_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"history": rows, "total": total, "limit": limit, "offset": offset})
}
