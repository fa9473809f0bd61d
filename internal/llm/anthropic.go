package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloo-solutions/podquery/internal/httpclient"
)

// Anthropic defaults
const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicVersion = "2023-06-01"
	DefaultModel            = "claude-haiku-4-5-20251001"
	DefaultMaxTokens        = 256

	maxReplyBytes = 1 << 20
)

// AnthropicConfig configures the Messages API transport
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Version    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// AnthropicTransport posts requests to the Anthropic Messages API
type AnthropicTransport struct {
	apiKey     string
	endpoint   string
	version    string
	httpClient *http.Client
	now        func() time.Time
}

// NewAnthropicTransport creates a transport for the Messages API
func NewAnthropicTransport(cfg AnthropicConfig) *AnthropicTransport {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAnthropicBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultAnthropicVersion
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New(httpclient.Config{Timeout: cfg.Timeout})
	}

	return &AnthropicTransport{
		apiKey:     cfg.APIKey,
		endpoint:   strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/messages",
		version:    cfg.Version,
		httpClient: cfg.HTTPClient,
		now:        time.Now,
	}
}

// Endpoint returns the messages URL
func (t *AnthropicTransport) Endpoint() string {
	return t.endpoint
}

// Send posts req and returns the raw reply regardless of status code
func (t *AnthropicTransport) Send(ctx context.Context, req MessageRequest) (*Exchange, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", t.apiKey)
	httpReq.Header.Set("anthropic-version", t.version)

	ex := &Exchange{
		Method:        http.MethodPost,
		URL:           t.endpoint,
		RequestHeader: httpReq.Header.Clone(),
		RequestBody:   body,
		SentAt:        t.now(),
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		ex.Elapsed = time.Since(ex.SentAt)
		return ex, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	ex.Elapsed = time.Since(ex.SentAt)
	ex.StatusCode = resp.StatusCode
	ex.ResponseHeader = resp.Header.Clone()
	if err != nil {
		return ex, fmt.Errorf("failed to read response: %w", err)
	}
	ex.Body = respBody

	return ex, nil
}

// Close releases idle connections
func (t *AnthropicTransport) Close() error {
	httpclient.CloseIdle(t.httpClient)
	return nil
}
