package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/unidine-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// RequestIDs stamps every request with a trace id and a request id, echoes both
// as response headers, and stores them in the request context. An active otel
// span wins over a caller-supplied X-Trace-Id.
func RequestIDs() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := ctxutil.Trace{
			TraceID:   spanTraceID(c),
			RequestID: strings.TrimSpace(c.GetHeader(headerRequestID)),
		}
		if t.TraceID == "" {
			t.TraceID = strings.TrimSpace(c.GetHeader(headerTraceID))
		}
		if t.TraceID == "" {
			t.TraceID = uuid.NewString()
		}
		if t.RequestID == "" {
			t.RequestID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(ctxutil.WithTrace(c.Request.Context(), t))
		c.Header(headerTraceID, t.TraceID)
		c.Header(headerRequestID, t.RequestID)
		c.Next()
	}
}

func spanTraceID(c *gin.Context) string {
	sc := trace.SpanContextFromContext(c.Request.Context())
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
