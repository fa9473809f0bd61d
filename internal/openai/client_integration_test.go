//go:build integration

package openai

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/podquery/internal/llm"
)

func TestIntegration_Send_RealAPI(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	transport, err := NewTransport(Config{APIKey: apiKey})
	require.NoError(t, err)
	defer transport.Close()

	ex, err := transport.Send(context.Background(), llm.MessageRequest{
		MaxTokens: 32,
		System:    "Reply with the JSON object {\"ok\":true} and nothing else.",
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "ping"}},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, ex.StatusCode)
	assert.Contains(t, string(ex.Body), `"content"`)
}
