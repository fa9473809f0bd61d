package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/podquery/internal/httpclient"
	"github.com/cloo-solutions/podquery/internal/llm"
)

// DefaultChatModel is used when no model is configured
const DefaultChatModel = openai.GPT4oMini

// ErrNoAPIKey is returned when no OpenAI API key is configured
var ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")

// ChatAPI defines the subset of the OpenAI API used for interpretation
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures an OpenAI-compatible chat backend
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Transport adapts chat completions to llm.Transport. Replies are
// re-enveloped in the Messages shape so the same reply recovery applies.
type Transport struct {
	api        ChatAPI
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewTransport creates a chat-completions transport
func NewTransport(cfg Config) (*Transport, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	hc := httpclient.New(httpclient.Config{Timeout: cfg.Timeout})
	clientCfg.HTTPClient = hc

	return &Transport{
		api:        openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		endpoint:   clientCfg.BaseURL + "/chat/completions",
		httpClient: hc,
	}, nil
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type envelope struct {
	ID      string         `json:"id,omitempty"`
	Model   string         `json:"model,omitempty"`
	Content []contentBlock `json:"content"`
}

type errorEnvelope struct {
	Type  string    `json:"type"`
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Send issues a chat completion. API errors come back as a non-2xx
// exchange; only connection-level failures return an error.
func (t *Transport) Send(ctx context.Context, req llm.MessageRequest) (*llm.Exchange, error) {
	model := req.Model
	if model == "" || model == llm.DefaultModel {
		model = t.model
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: req.MaxTokens,
	}
	if req.System != "" {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	reqBody, _ := json.Marshal(chatReq)
	ex := &llm.Exchange{
		Method:        http.MethodPost,
		URL:           t.endpoint,
		RequestHeader: http.Header{"Content-Type": []string{"application/json"}},
		RequestBody:   reqBody,
		SentAt:        time.Now(),
	}

	resp, err := t.api.CreateChatCompletion(ctx, chatReq)
	ex.Elapsed = time.Since(ex.SentAt)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
			ex.StatusCode = apiErr.HTTPStatusCode
			ex.Body, _ = json.Marshal(errorEnvelope{
				Type:  "error",
				Error: errorBody{Type: apiErr.Type, Message: apiErr.Message},
			})
			return ex, nil
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
			ex.StatusCode = reqErr.HTTPStatusCode
			ex.Body, _ = json.Marshal(errorEnvelope{
				Type:  "error",
				Error: errorBody{Type: "request_error", Message: reqErr.Error()},
			})
			return ex, nil
		}
		return ex, fmt.Errorf("chat completion failed: %w", err)
	}

	env := envelope{ID: resp.ID, Model: resp.Model, Content: []contentBlock{}}
	if len(resp.Choices) > 0 {
		env.Content = append(env.Content, contentBlock{Type: "text", Text: resp.Choices[0].Message.Content})
	}
	ex.StatusCode = http.StatusOK
	ex.Body, err = json.Marshal(env)
	if err != nil {
		return ex, fmt.Errorf("failed to encode reply: %w", err)
	}

	return ex, nil
}

// Close releases idle connections
func (t *Transport) Close() error {
	httpclient.CloseIdle(t.httpClient)
	return nil
}
