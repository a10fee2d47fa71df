package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/unidine-backend/internal/platform/envutil"
	"github.com/yungbote/unidine-backend/internal/platform/httpx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

// Client is the slice of the Instagram Graph API used for automated replies.
type Client interface {
	ReplyToComment(ctx context.Context, accessToken, commentID, message string) (string, error)
	SendMessage(ctx context.Context, accessToken, igBusinessID, recipientID, message string) (string, error)
	GetMedia(ctx context.Context, accessToken, mediaID string) (*Media, error)
}

type Config struct {
	BaseURL    string
	Version    string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:    envutil.String("INSTAGRAM_GRAPH_BASE_URL", "https://graph.facebook.com"),
		Version:    envutil.String("INSTAGRAM_GRAPH_VERSION", "v18.0"),
		Timeout:    envutil.Seconds("INSTAGRAM_GRAPH_TIMEOUT_SECONDS", 15),
		MaxRetries: envutil.Int("INSTAGRAM_GRAPH_MAX_RETRIES", 1),
	}
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com"
	}
	cfg.Version = strings.Trim(strings.TrimSpace(cfg.Version), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "InstagramGraphClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type Media struct {
	ID        string `json:"id"`
	Caption   string `json:"caption,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	MediaURL  string `json:"media_url,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Username  string `json:"username,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// GraphError is the error envelope the Graph API returns on non-2xx.
type GraphError struct {
	StatusCode int
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("instagram graph http %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}

func (e *GraphError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) ReplyToComment(ctx context.Context, accessToken, commentID, message string) (string, error) {
	if strings.TrimSpace(commentID) == "" || strings.TrimSpace(message) == "" {
		return "", errors.New("comment id and message required")
	}
	q := url.Values{}
	q.Set("message", message)
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(commentID)+"/replies", accessToken, q, nil, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *client) SendMessage(ctx context.Context, accessToken, igBusinessID, recipientID, message string) (string, error) {
	if strings.TrimSpace(recipientID) == "" || strings.TrimSpace(message) == "" {
		return "", errors.New("recipient and message required")
	}
	if strings.TrimSpace(igBusinessID) == "" {
		igBusinessID = "me"
	}
	body := map[string]any{
		"recipient": map[string]string{"id": recipientID},
		"message":   map[string]string{"text": message},
	}
	var out struct {
		MessageID string `json:"message_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(igBusinessID)+"/messages", accessToken, nil, body, &out); err != nil {
		return "", err
	}
	return out.MessageID, nil
}

func (c *client) GetMedia(ctx context.Context, accessToken, mediaID string) (*Media, error) {
	if strings.TrimSpace(mediaID) == "" {
		return nil, errors.New("media id required")
	}
	q := url.Values{}
	q.Set("fields", "id,caption,media_type,media_url,permalink,username,timestamp")
	var out Media
	if err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(mediaID), accessToken, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) endpoint(path string, q url.Values) string {
	u := c.cfg.BaseURL
	if c.cfg.Version != "" {
		u += "/" + c.cfg.Version
	}
	u += path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *client) do(ctx context.Context, method, path, accessToken string, q url.Values, body any, out any) error {
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		resp, err := c.doOnce(ctx, method, path, accessToken, q, body, out)
		if err == nil {
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries || ctx.Err() != nil {
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 5*time.Second))
		c.log.Warn("instagram graph request retrying", "path", path, "attempt", attempt+1, "sleep", sleepFor.String(), "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, method, path, accessToken string, q url.Values, body any, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), reader)
	if err != nil {
		return nil, err
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gerr := &GraphError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error *GraphError `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
			gerr.Message = envelope.Error.Message
			gerr.Type = envelope.Error.Type
			gerr.Code = envelope.Error.Code
		} else {
			gerr.Message = strings.TrimSpace(string(raw))
		}
		return resp, gerr
	}
	if out == nil || len(raw) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp, fmt.Errorf("instagram graph decode: %w", err)
	}
	return resp, nil
}
