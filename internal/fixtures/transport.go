package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/podquery/internal/llm"
)

const fixtureEndpoint = "fixture://model/v1/messages"

// ScenarioTransport replays a single registered reply for every request
type ScenarioTransport struct {
	reply Reply

	mu       sync.Mutex
	requests []llm.MessageRequest
}

// NewScenarioTransport creates a transport for the named reply scenario
func NewScenarioTransport(name string) (*ScenarioTransport, error) {
	r, ok := LookupReply(name)
	if !ok {
		return nil, fmt.Errorf("unknown reply scenario %q", name)
	}
	return &ScenarioTransport{reply: r}, nil
}

// NewReplyTransport creates a transport that replays r
func NewReplyTransport(r Reply) *ScenarioTransport {
	return &ScenarioTransport{reply: r}
}

// Send records req and returns the scenario reply
func (t *ScenarioTransport) Send(ctx context.Context, req llm.MessageRequest) (*llm.Exchange, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()

	return replay(ctx, req, t.reply)
}

// Requests returns every request seen so far
func (t *ScenarioTransport) Requests() []llm.MessageRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]llm.MessageRequest, len(t.requests))
	copy(out, t.requests)
	return out
}

// OracleTransport answers each query with the correct interpretation from
// a case table. Unknown inputs receive the empty_query reply.
type OracleTransport struct {
	answers map[string]TestCase
}

// NewOracleTransport creates an oracle over cases, or the built-in cases
// when none are given
func NewOracleTransport(cases ...TestCase) *OracleTransport {
	if len(cases) == 0 {
		cases = Cases()
	}
	answers := make(map[string]TestCase, len(cases))
	for _, tc := range cases {
		answers[oracleKey(tc.Input)] = tc
	}
	return &OracleTransport{answers: answers}
}

// Send returns the oracle reply for the request's user turn
func (t *OracleTransport) Send(ctx context.Context, req llm.MessageRequest) (*llm.Exchange, error) {
	tc, ok := t.answers[oracleKey(req.UserText())]
	if !ok {
		return replay(ctx, req, MustReply(ReplyEmptyQuery))
	}
	return replay(ctx, req, SuccessReply(tc.ExpectedCategory, tc.ExpectedQuery, tc.Description))
}

func oracleKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func replay(ctx context.Context, req llm.MessageRequest, r Reply) (*llm.Exchange, error) {
	body, _ := json.Marshal(req)
	ex := &llm.Exchange{
		Method:        http.MethodPost,
		URL:           fixtureEndpoint,
		RequestHeader: http.Header{"Content-Type": []string{"application/json"}},
		RequestBody:   body,
		SentAt:        time.Now(),
	}
	if err := ctx.Err(); err != nil {
		return ex, err
	}

	ex.StatusCode = r.Status
	ex.ResponseHeader = http.Header{"Content-Type": []string{"application/json"}}
	ex.Body = []byte(r.Body)
	return ex, nil
}
