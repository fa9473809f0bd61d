package interpreter

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/httpclient"
	"github.com/cloo-solutions/podquery/internal/llm"
	"github.com/cloo-solutions/podquery/internal/metrics"
	"github.com/cloo-solutions/podquery/internal/session"
)

// Config configures an interpreter Client
type Config struct {
	Model        string
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
	History      *session.History
	Logger       zerolog.Logger
}

// Client classifies sanitized queries through a language model
type Client struct {
	transport llm.Transport
	model     string
	maxTokens int
	timeout   time.Duration
	system    string
	history   *session.History
	logger    zerolog.Logger
}

// NewClient creates a Client over the given transport
func NewClient(transport llm.Transport, cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = httpclient.DefaultTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}
	if cfg.History == nil {
		cfg.History = session.NewHistory()
	}

	return &Client{
		transport: transport,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		system:    cfg.SystemPrompt,
		history:   cfg.History,
		logger:    cfg.Logger.With().Str("component", "interpreter").Logger(),
	}
}

// History returns the client's session history
func (c *Client) History() *session.History {
	return c.history
}

// Interpret asks the model to classify query and recovers the reply.
// Every failure is a *domain.StageError at the interpret stage.
func (c *Client) Interpret(ctx context.Context, query domain.SanitizedQuery) (domain.Interpretation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := llm.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    c.system,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: query.String()}},
	}

	ex, sendErr := c.transport.Send(ctx, req)
	interp, err := c.resolve(ex, sendErr)

	c.record(query, ex, err)
	metrics.RecordUpstreamRequest(session.ServiceModel, exchangeStatus(ex))

	if err != nil {
		c.logger.Warn().Err(err).Str("query", query.String()).Msg("interpretation failed")
		return domain.Interpretation{}, err
	}

	c.logger.Debug().
		Str("query", query.String()).
		Str("category", interp.Category.String()).
		Str("term", interp.Query).
		Msg("query interpreted")
	return interp, nil
}

func (c *Client) resolve(ex *llm.Exchange, sendErr error) (domain.Interpretation, error) {
	if sendErr != nil {
		kind := domain.KindTransport
		if httpclient.IsTimeout(sendErr) {
			kind = domain.KindTimeout
		}
		return domain.Interpretation{}, domain.NewStageErrorWithCause(domain.StageInterpret, kind, "", sendErr)
	}

	if ex.StatusCode < 200 || ex.StatusCode > 299 {
		return domain.Interpretation{}, domain.NewUpstreamError(domain.StageInterpret, domain.KindTransport, ex.StatusCode, upstreamMessage(ex.Body))
	}

	return ParseReply(ex.Body)
}

func (c *Client) record(query domain.SanitizedQuery, ex *llm.Exchange, err error) {
	if ex == nil {
		return
	}

	entry := session.Entry{
		Service: session.ServiceModel,
		Query:   query.String(),
		Request: session.NewRequestLog(ex.SentAt, ex.Method, ex.URL, ex.RequestHeader, ex.RequestBody),
	}
	if ex.Replied() {
		resp := session.NewResponseLog(ex.SentAt.Add(ex.Elapsed), ex.StatusCode, ex.ResponseHeader, ex.Body, ex.Elapsed)
		entry.Response = &resp
	}
	if err != nil {
		entry.Error = err.Error()
	}
	c.history.Append(entry)
}

// Close releases the transport's resources
func (c *Client) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// upstreamMessage extracts error.message from an error envelope, falling
// back to the raw body.
func upstreamMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
			return msg.String()
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func exchangeStatus(ex *llm.Exchange) int {
	if ex == nil {
		return 0
	}
	return ex.StatusCode
}
