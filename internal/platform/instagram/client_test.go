package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, url string) Client {
	t.Helper()
	c, err := New(logger.Nop(), Config{BaseURL: url, Version: "v18.0", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestReplyToComment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v18.0/c-1/replies" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("message"); got != "Thanks!" {
			t.Errorf("message=%q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth=%q", got)
		}
		_, _ = io.WriteString(w, `{"id":"reply-9"}`)
	}))
	defer srv.Close()

	id, err := newTestClient(t, srv.URL).ReplyToComment(context.Background(), "tok", "c-1", "Thanks!")
	if err != nil || id != "reply-9" {
		t.Fatalf("ReplyToComment: id=%q err=%v", id, err)
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v18.0/ig-1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Recipient struct{ ID string } `json:"recipient"`
			Message   struct{ Text string } `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Recipient.ID != "user-7" || body.Message.Text != "saved" {
			t.Errorf("unexpected body %+v", body)
		}
		_, _ = io.WriteString(w, `{"recipient_id":"user-7","message_id":"m-1"}`)
	}))
	defer srv.Close()

	id, err := newTestClient(t, srv.URL).SendMessage(context.Background(), "tok", "ig-1", "user-7", "saved")
	if err != nil || id != "m-1" {
		t.Fatalf("SendMessage: id=%q err=%v", id, err)
	}
}

func TestGraphErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).GetMedia(context.Background(), "bad", "media-1")
	var gerr *GraphError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GraphError, got %v", err)
	}
	if gerr.Code != 190 || gerr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected error %+v", gerr)
	}
}
