package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/envutil"
	"github.com/yungbote/unidine-backend/internal/platform/httpx"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

// Client is the subset of the OpenAI Responses API the backend uses.
type Client interface {
	// Structured outputs (json_schema)
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)

	// Plain text (no schema)
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

// ErrNotConfigured is returned by NewClient when OPENAI_API_KEY is unset.
var ErrNotConfigured = errors.New("missing OPENAI_API_KEY")

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature *float64
}

func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:     envutil.String("OPENAI_API_KEY", ""),
		BaseURL:    envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:      envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:    envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 30),
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 2),
	}
	switch strings.ToLower(envutil.String("OPENAI_TEMPERATURE", "")) {
	case "off", "none", "false":
	case "":
		cfg.Temperature = f64ptr(0.2)
	default:
		cfg.Temperature = f64ptr(envutil.Float("OPENAI_TEMPERATURE", 0.2))
	}
	return cfg
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int

	temperature *float64

	// Models that rejected temperature once are remembered and sent without it.
	noTempMu   sync.RWMutex
	noTempSeen map[string]bool
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       strings.TrimSpace(cfg.Model),
		httpClient:  &http.Client{Timeout: timeout},
		maxRetries:  maxRetries,
		temperature: cfg.Temperature,
		noTempSeen:  map[string]bool{},
	}, nil
}

func f64ptr(v float64) *float64 { return &v }

func (c *client) modelIsNoTemp(model string) bool {
	c.noTempMu.RLock()
	defer c.noTempMu.RUnlock()
	return c.noTempSeen[strings.ToLower(strings.TrimSpace(model))]
}

func (c *client) noteNoTempModel(model string) {
	c.noTempMu.Lock()
	c.noTempSeen[strings.ToLower(strings.TrimSpace(model))] = true
	c.noTempMu.Unlock()
	c.log.Warn("model rejected temperature; omitting it from now on", "model", model)
}

func (c *client) applyTemperature(req *responsesRequest) {
	if req == nil || c.temperature == nil {
		return
	}
	if c.modelIsNoTemp(req.Model) {
		return
	}
	req.Temperature = c.temperature
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func isUnsupportedTemperatureParam(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, needle := range []string{"unsupported parameter", "unknown parameter", "not supported", "does not support", "only the default", "unsupported_value"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, req *responsesRequest, out any) error {
	backoff := 500 * time.Millisecond
	start := time.Now()
	model := ""
	if req != nil {
		model = req.Model
	}
	metrics := observability.Current()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, req)
		if err == nil {
			inputTokens, outputTokens := extractUsage(raw)
			metrics.ObserveLLMRequest(model, path, statusFromResp(resp), time.Since(start), inputTokens, outputTokens)
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			metrics.ObserveLLMRequest(model, path, statusFromRespErr(resp, err), time.Since(start), 0, 0)
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		timer := time.NewTimer(sleepFor)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

// doWithTempFallback retries exactly once without temperature if the model rejects it.
func (c *client) doWithTempFallback(ctx context.Context, req *responsesRequest, out any) error {
	err := c.do(ctx, http.MethodPost, "/v1/responses", req, out)
	if err == nil || req.Temperature == nil || !isUnsupportedTemperatureParam(err) {
		return err
	}
	c.noteNoTempModel(req.Model)
	req.Temperature = nil
	return c.do(ctx, http.MethodPost, "/v1/responses", req, out)
}

type inputMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`

	Text struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func (c *client) newRequest(system, user string) *responsesRequest {
	req := &responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	c.applyTemperature(req)
	return req
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if schema == nil {
		return nil, errors.New("schema required")
	}

	req := c.newRequest(system, user)
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": schema,
		"strict": true,
	}

	var resp responsesResponse
	if err := c.doWithTempFallback(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Refusal != "" {
		return nil, fmt.Errorf("model refused: %s", resp.Refusal)
	}

	jsonText := extractOutputText(resp)
	if strings.TrimSpace(jsonText) == "" {
		return nil, fmt.Errorf("no output_text found in response")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return obj, nil
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	var resp responsesResponse
	if err := c.doWithTempFallback(ctx, c.newRequest(system, user), &resp); err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Refusal)
	}

	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

func extractUsage(raw []byte) (int, int) {
	var payload struct {
		Usage struct {
			InputTokens      int `json:"input_tokens"`
			OutputTokens     int `json:"output_tokens"`
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil {
		return 0, 0
	}
	u := payload.Usage
	if u.InputTokens == 0 && u.OutputTokens == 0 {
		return u.PromptTokens, u.CompletionTokens
	}
	return u.InputTokens, u.OutputTokens
}

func statusFromResp(resp *http.Response) string {
	if resp == nil {
		return "unknown"
	}
	return strconv.Itoa(resp.StatusCode)
}

func statusFromRespErr(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
