package podcastindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/httpclient"
	"github.com/cloo-solutions/podquery/internal/metrics"
	"github.com/cloo-solutions/podquery/internal/session"
)

// Service defaults
const (
	DefaultBaseURL   = "https://api.podcastindex.org/api/1.0"
	DefaultUserAgent = "PodcastApp/1.0"

	maxResponseBytes = 4 << 20
)

// ErrMissingCredentials is returned when the key or secret is empty
var ErrMissingCredentials = errors.New("podcastindex api key and secret are required")

// HTTPDoer executes HTTP requests
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client
type Config struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	History    *session.History
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Client searches the PodcastIndex catalogue
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient HTTPDoer
	history    *session.History
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a Client. Missing credentials are a configuration error.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, domain.NewStageErrorWithCause(domain.StageConfig, domain.KindConfiguration, "", ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = httpclient.DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New(httpclient.Config{Timeout: cfg.Timeout})
	}
	if cfg.History == nil {
		cfg.History = session.NewHistory()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Client{
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		history:    cfg.History,
		logger:     cfg.Logger.With().Str("component", "podcastindex").Logger(),
		now:        cfg.Now,
	}, nil
}

// History returns the client's session history
func (c *Client) History() *session.History {
	return c.history
}

// SearchURL builds the endpoint URL for a category and query
func (c *Client) SearchURL(category domain.Category, query string, maxResults int) string {
	if !category.IsValid() {
		category = domain.NormalizeCategory(string(category))
	}
	if maxResults <= 0 {
		maxResults = domain.DefaultMaxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("max", strconv.Itoa(maxResults))
	if category == domain.CategoryByTerm {
		params.Set("clean", "true")
	}
	return fmt.Sprintf("%s/search/%s?%s", c.baseURL, category, params.Encode())
}

// Search queries the catalogue. Failures are *domain.StageError values at
// the search stage.
func (c *Client) Search(ctx context.Context, category domain.Category, query string, maxResults int) (*domain.SearchOutcome, error) {
	if !category.IsValid() {
		category = domain.NormalizeCategory(string(category))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.SearchURL(category, query, maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, domain.NewStageErrorWithCause(domain.StageSearch, domain.KindTransport, "failed to create request", err)
	}
	sentAt := c.now()
	req.Header = AuthHeaders(c.apiKey, c.apiSecret, c.userAgent, sentAt)
	req.Header.Set("Accept", "application/json")

	entry := session.Entry{
		Service: session.ServiceSearch,
		Query:   query,
		Request: session.NewRequestLog(sentAt, http.MethodGet, target, req.Header, nil),
	}

	outcome, status, err := c.do(req, &entry, category, query)

	if err != nil {
		entry.Error = err.Error()
	}
	c.history.Append(entry)
	metrics.RecordUpstreamRequest(session.ServiceSearch, status)

	if err != nil {
		c.logger.Warn().Err(err).Str("category", category.String()).Str("query", query).Msg("search failed")
		return nil, err
	}

	c.logger.Debug().
		Str("category", category.String()).
		Str("query", query).
		Int("records", len(outcome.Records)).
		Int("total", outcome.Total).
		Msg("search completed")
	return outcome, nil
}

func (c *Client) do(req *http.Request, entry *session.Entry, category domain.Category, query string) (*domain.SearchOutcome, int, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := domain.KindTransport
		if httpclient.IsTimeout(err) {
			kind = domain.KindTimeout
		}
		return nil, 0, domain.NewStageErrorWithCause(domain.StageSearch, kind, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	logged := session.NewResponseLog(c.now(), resp.StatusCode, resp.Header, body, elapsed)
	entry.Response = &logged
	if err != nil {
		kind := domain.KindTransport
		if httpclient.IsTimeout(err) {
			kind = domain.KindTimeout
		}
		return nil, resp.StatusCode, domain.NewStageErrorWithCause(domain.StageSearch, kind, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, domain.NewUpstreamError(domain.StageSearch, domain.KindUpstream, resp.StatusCode, upstreamDescription(resp.StatusCode, body))
	}

	if !gjson.ValidBytes(body) {
		return nil, resp.StatusCode, domain.NewStageError(domain.StageSearch, domain.KindUnparseable, "response is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, resp.StatusCode, domain.NewStageError(domain.StageSearch, domain.KindUnparseable, "response is not a JSON object")
	}

	records := parseFeeds(doc)
	return &domain.SearchOutcome{
		Category: category,
		Query:    query,
		Records:  records,
		Total:    resultTotal(doc, len(records)),
	}, resp.StatusCode, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	httpclient.CloseIdle(c.httpClient)
	return nil
}

func upstreamDescription(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		if d := gjson.GetBytes(body, "description"); d.Type == gjson.String && strings.TrimSpace(d.String()) != "" {
			return d.String()
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		if len(text) > 200 {
			text = text[:200]
		}
		return text
	}
	return http.StatusText(status)
}
