package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/http/response"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/services"
)

type RestaurantHandler struct {
	restaurants services.RestaurantService
}

func NewRestaurantHandler(restaurants services.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurants: restaurants}
}

// GET /api/restaurants?status&cuisine&search&sort&limit&offset
func (h *RestaurantHandler) List(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	limit, offset := pagination(c)
	rows, total, err := h.restaurants.List(dbctx.Context{Ctx: c.Request.Context()}, userID, repos.RestaurantListFilter{
		VisitStatus: strings.TrimSpace(c.Query("status")),
		Cuisine:     strings.TrimSpace(c.Query("cuisine")),
		Search:      strings.TrimSpace(c.Query("search")),
		Sort:        strings.TrimSpace(c.Query("sort")),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		response.RespondServiceError(c, "list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"restaurants": rows, "total": total, "limit": limit, "offset": offset})
}

// GET /api/restaurants/stats
func (h *RestaurantHandler) Stats(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	st, err := h.restaurants.Stats(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		response.RespondServiceError(c, "stats_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"stats": st})
}

// GET /api/restaurants/cuisines
func (h *RestaurantHandler) Cuisines(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	out, err := h.restaurants.Cuisines(dbctx.Context{Ctx: c.Request.Context()}, userID)
	if err != nil {
		response.RespondServiceError(c, "cuisines_failed", err)
		return
	}
	if out == nil {
		out = []string{}
	}
	response.RespondOK(c, gin.H{"cuisines": out})
}

// GET /api/restaurants/:id
func (h *RestaurantHandler) Get(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_restaurant_id", err)
		return
	}
	rec, err := h.restaurants.Get(dbctx.Context{Ctx: c.Request.Context()}, userID, id)
	if err != nil {
		response.RespondServiceError(c, "get_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"restaurant": rec})
}

// PATCH /api/restaurants/:id/status
func (h *RestaurantHandler) UpdateStatus(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_restaurant_id", err)
		return
	}
	var req struct {
		VisitStatus string `json:"visit_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rec, err := h.restaurants.UpdateStatus(dbctx.Context{Ctx: c.Request.Context()}, userID, id, strings.TrimSpace(req.VisitStatus))
	if err != nil {
		response.RespondServiceError(c, "update_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"restaurant": rec})
}

// DELETE /api/restaurants/:id
func (h *RestaurantHandler) Delete(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_restaurant_id", err)
		return
	}
	if err := h.restaurants.Delete(dbctx.Context{Ctx: c.Request.Context()}, userID, id); err != nil {
		response.RespondServiceError(c, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/restaurants
func (h *RestaurantHandler) Create(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthenticated)
		return
	}
	var req struct {
		Name       string   `json:"name"`
		Location   string   `json:"location"`
		Cuisine    []string `json:"cuisine"`
		Dishes     []string `json:"dishes"`
		PriceRange string   `json:"price_range"`
		SourceText string   `json:"source_text"`
		MediaLink  string   `json:"media_link"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_name", errors.New("name is required"))
		return
	}
	m := &restaurants.Mention{
		Name:       strings.TrimSpace(req.Name),
		Location:   strings.TrimSpace(req.Location),
		Cuisine:    req.Cuisine,
		Dishes:     req.Dishes,
		PriceRange: strings.TrimSpace(req.PriceRange),
		MediaLink:  strings.TrimSpace(req.MediaLink),
	}
	rec, err := h.restaurants.SaveManual(c.Request.Context(), userID, m, req.SourceText)
	if err != nil {
		response.RespondServiceError(c, "save_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"restaurant": rec})
}
