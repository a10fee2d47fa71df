package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/unidine-backend/internal/platform/ctxutil"
)

func TestRequestIDsEchoesAndStoresIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen ctxutil.Trace
	r := gin.New()
	r.Use(RequestIDs(), Access(nil, nil, "/ping"))
	r.GET("/ping", func(c *gin.Context) {
		seen = ctxutil.TraceFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(headerRequestID, "req-1")
	req.Header.Set(headerTraceID, "trace-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen.RequestID != "req-1" || seen.TraceID != "trace-1" {
		t.Fatalf("ids not stored in context: %+v", seen)
	}
	if rec.Header().Get(headerRequestID) != "req-1" || rec.Header().Get(headerTraceID) != "trace-1" {
		t.Fatalf("ids not echoed: %v", rec.Header())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if seen.RequestID == "" || seen.TraceID == "" || seen.RequestID == "req-1" {
		t.Fatalf("ids not generated: %+v", seen)
	}
	if rec.Header().Get(headerRequestID) != seen.RequestID {
		t.Fatalf("generated request id not echoed")
	}
}
