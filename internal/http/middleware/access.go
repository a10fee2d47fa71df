package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/ctxutil"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

// Access records request metrics and writes one log line per request. Routes
// listed in quiet (probes, scrapes) are measured but not logged.
func Access(log *logger.Logger, m *observability.Metrics, quiet ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(quiet))
	for _, r := range quiet {
		skip[r] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		done := m.TrackInflight()
		c.Next()
		done()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(status), elapsed)

		if log == nil || skip[route] {
			return
		}
		fields := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"bytes", c.Writer.Size(),
		}
		ctx := c.Request.Context()
		fields = append(fields, ctxutil.TraceFrom(ctx).Fields()...)
		if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
			fields = append(fields, "user_id", rd.UserID.String())
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Debug("http request", fields...)
		}
	}
}
