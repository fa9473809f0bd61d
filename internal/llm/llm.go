// Package llm defines the wire contract shared by language-model transports.
package llm

import (
	"context"
	"net/http"
	"time"
)

// Message is one conversational turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageRequest is a single-shot completion request
type MessageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

// UserText returns the content of the first user turn
func (r MessageRequest) UserText() string {
	for _, m := range r.Messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

// RoleUser is the role of the end user's turn
const RoleUser = "user"

// Exchange is the raw record of one request/reply round trip.
// Response fields are zero when the call failed before a reply arrived.
type Exchange struct {
	Method        string
	URL           string
	RequestHeader http.Header
	RequestBody   []byte
	SentAt        time.Time

	StatusCode     int
	ResponseHeader http.Header
	Body           []byte
	Elapsed        time.Duration
}

// Replied reports whether a response was received
func (e *Exchange) Replied() bool {
	return e != nil && e.StatusCode != 0
}

// Transport sends a MessageRequest and returns the raw reply bytes.
// The returned Exchange is non-nil whenever the request was built, even
// when err is non-nil, so callers can log the attempt.
type Transport interface {
	Send(ctx context.Context, req MessageRequest) (*Exchange, error)
}
