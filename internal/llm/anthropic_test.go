package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicTransport_Send(t *testing.T) {
	var captured MessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, DefaultAnthropicVersion, r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{}"}]}`))
	}))
	defer server.Close()

	transport := NewAnthropicTransport(AnthropicConfig{APIKey: "test-key", BaseURL: server.URL + "/"})
	defer transport.Close()

	ex, err := transport.Send(context.Background(), MessageRequest{
		Model:     DefaultModel,
		MaxTokens: DefaultMaxTokens,
		System:    "be brief",
		Messages:  []Message{{Role: RoleUser, Content: "true crime"}},
	})
	require.NoError(t, err)

	assert.True(t, ex.Replied())
	assert.Equal(t, http.StatusOK, ex.StatusCode)
	assert.Equal(t, transport.Endpoint(), ex.URL)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"{}"}]}`, string(ex.Body))
	assert.Equal(t, "test-key", ex.RequestHeader.Get("x-api-key"))

	assert.Equal(t, DefaultModel, captured.Model)
	assert.Equal(t, 256, captured.MaxTokens)
	assert.Equal(t, "be brief", captured.System)
	assert.Equal(t, "true crime", captured.UserText())
}

func TestAnthropicTransport_Endpoint(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{name: "default", want: "https://api.anthropic.com/v1/messages"},
		{name: "trailing slash", baseURL: "http://localhost:9000/", want: "http://localhost:9000/v1/messages"},
		{name: "no trailing slash", baseURL: "http://localhost:9000", want: "http://localhost:9000/v1/messages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := NewAnthropicTransport(AnthropicConfig{BaseURL: tt.baseURL})
			defer transport.Close()
			assert.Equal(t, tt.want, transport.Endpoint())
		})
	}
}

func TestAnthropicTransport_NonSuccessIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	transport := NewAnthropicTransport(AnthropicConfig{APIKey: "bad", BaseURL: server.URL})
	ex, err := transport.Send(context.Background(), MessageRequest{Model: DefaultModel})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, ex.StatusCode)
}

func TestAnthropicTransport_TransportFailureKeepsExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	transport := NewAnthropicTransport(AnthropicConfig{APIKey: "k", BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	ex, err := transport.Send(context.Background(), MessageRequest{Model: DefaultModel})
	require.Error(t, err)
	require.NotNil(t, ex)
	assert.False(t, ex.Replied())
	assert.Equal(t, http.MethodPost, ex.Method)
}

func TestMessageRequest_UserText(t *testing.T) {
	req := MessageRequest{Messages: []Message{{Role: "assistant", Content: "hi"}, {Role: RoleUser, Content: "AI"}}}
	assert.Equal(t, "AI", req.UserText())
	assert.Empty(t, MessageRequest{}.UserText())
}
