package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/unidine-backend/internal/platform/ctxutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var errUnauthenticated = errors.New("not authenticated")

func requestUser(c *gin.Context) (uuid.UUID, bool) {
	id := ctxutil.UserID(c.Request.Context())
	return id, id != uuid.Nil
}

// pagination reads limit/offset query params, clamping limit to [1,maxPageSize].
func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
