package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const okBody = `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"{\"sentiment\":\"positive\",\"intent\":\"praise\"}"}]}],"usage":{"input_tokens":12,"output_tokens":5}}`

func newTestClient(t *testing.T, url string, retries int) Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{
		APIKey:      "sk-test",
		BaseURL:     url,
		Model:       "test-model",
		Timeout:     5 * time.Second,
		MaxRetries:  retries,
		Temperature: f64ptr(0.2),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" || r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected request %s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req responsesRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text.Format["type"] != "json_schema" {
			t.Errorf("expected json_schema format, got %v", req.Text.Format)
		}
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	obj, err := c.GenerateJSON(context.Background(), "sys", "user", "analysis", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if obj["intent"] != "praise" {
		t.Fatalf("unexpected object %v", obj)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestGenerateTextDropsRejectedTemperature(t *testing.T) {
	var withTemp, withoutTemp int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"temperature"`) {
			atomic.AddInt32(&withTemp, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"Unsupported parameter: 'temperature' is not supported with this model."}}`)
			return
		}
		atomic.AddInt32(&withoutTemp, 1)
		_, _ = io.WriteString(w, `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"Thanks!"}]}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	for i := 0; i < 2; i++ {
		text, err := c.GenerateText(context.Background(), "sys", "hi")
		if err != nil {
			t.Fatalf("GenerateText: %v", err)
		}
		if text != "Thanks!" {
			t.Fatalf("unexpected text %q", text)
		}
	}
	if withTemp != 1 || withoutTemp != 2 {
		t.Fatalf("temperature should be dropped after first rejection: with=%d without=%d", withTemp, withoutTemp)
	}
}

func TestGenerateTextClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	if _, err := c.GenerateText(context.Background(), "sys", "hi"); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("401 must not be retried, got %d calls", calls)
	}
}
