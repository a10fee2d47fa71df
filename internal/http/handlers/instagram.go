package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/unidine-backend/internal/http/response"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/services"
)

type InstagramHandler struct {
	accounts services.InstagramAccountService
}

func NewInstagramHandler(accounts services.InstagramAccountService) *InstagramHandler {
	return &InstagramHandler{accounts: accounts}
}

// POST /api/instagram/accounts
func (h *InstagramHandler) ConnectAccount(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	var req struct {
		IGBusinessID   string     `json:"ig_business_id"`
		Username       string     `json:"username"`
		AccessToken    string     `json:"access_token"`
		TokenExpiresAt *time.Time `json:"token_expires_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	acct, err := h.accounts.Connect(dbctx.Context{Ctx: c.Request.Context()}, userID, services.ConnectAccountInput{
		IGBusinessID:   req.IGBusinessID,
		Username:       req.Username,
		AccessToken:    req.AccessToken,
		TokenExpiresAt: req.TokenExpiresAt,
	})
	if err != nil {
		response.RespondServiceError(c, "connect_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"account": acct})
}

// GET /api/instagram/accounts
func (h *InstagramHandler) ListAccounts(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	rows, err := h.accounts.List(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		response.RespondServiceError(c, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"accounts": rows})
}

// PATCH /api/instagram/accounts/:id/settings
func (h *InstagramHandler) UpdateSettings(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_account_id", err)
		return
	}
	var req services.AccountSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	acct, err := h.accounts.UpdateSettings(dbctx.Context{Ctx: c.Request.Context()}, userID, accountID, req)
	if err != nil {
		response.RespondServiceError(c, "update_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"account": acct})
}

// GET /api/instagram/templates?account_id=
func (h *InstagramHandler) ListTemplates(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	accountID, err := uuid.Parse(strings.TrimSpace(c.Query("account_id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_account_id", err)
		return
	}
	rows, err := h.accounts.ListTemplates(dbctx.Context{Ctx: c.Request.Context()}, userID, accountID)
	if err != nil {
		response.RespondServiceError(c, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"templates": rows})
}

// POST /api/instagram/templates
func (h *InstagramHandler) CreateTemplate(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	var req services.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tpl, err := h.accounts.CreateTemplate(dbctx.Context{Ctx: c.Request.Context()}, userID, req)
	if err != nil {
		response.RespondServiceError(c, "create_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"template": tpl})
}

// GET /api/instagram/interactions?type&limit&offset
func (h *InstagramHandler) ListInteractions(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	limit, offset := pagination(c)
	rows, total, err := h.accounts.ListInteractions(dbctx.Context{Ctx: c.Request.Context()}, userID, strings.TrimSpace(c.Query("type")), limit, offset)
	if err != nil {
		response.RespondServiceError(c, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"interactions": rows, "total": total, "limit": limit, "offset": offset})
}
