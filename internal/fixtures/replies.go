// Package fixtures holds golden model replies, search payloads and
// interpretation test cases, plus network-free transports that replay them.
package fixtures

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// Reply is a literal model-API response
type Reply struct {
	Status int
	Body   string
}

// Reply scenario names
const (
	ReplySuccessByPerson   = "success_byperson"
	ReplySuccessByTitle    = "success_bytitle"
	ReplySuccessByTerm     = "success_byterm"
	ReplySuccessWithMD     = "success_with_markdown"
	ReplySuccessWithProse  = "success_with_prose"
	ReplyLegacySearchType  = "legacy_search_type"
	ReplyUnknownCategory   = "unknown_category"
	ReplyMalformedJSON     = "malformed_json"
	ReplyEmptyQuery        = "empty_query"
	ReplyEmptyContent      = "empty_content"
	ReplyAPIError          = "api_error"
	ReplyMultipleFences    = "multiple_fences"
	ReplyNonTextFirstBlock = "non_text_first_block"
)

func message(id, text string) string {
	textJSON, _ := json.Marshal(text)
	idJSON, _ := json.Marshal(id)
	return fmt.Sprintf(`{
  "content": [{"type": "text", "text": %s}],
  "id": %s,
  "model": "claude-haiku-4-5-20251001",
  "role": "assistant",
  "stop_reason": "end_turn",
  "type": "message",
  "usage": {"input_tokens": 100, "output_tokens": 50}
}`, textJSON, idJSON)
}

var replies = map[string]Reply{
	ReplySuccessByPerson: {Status: http.StatusOK, Body: message("msg_mock_1",
		`{"category": "byperson", "query": "David Deutsch", "explanation": "Searching for podcast episodes featuring David Deutsch as a guest"}`)},
	ReplySuccessByTitle: {Status: http.StatusOK, Body: message("msg_mock_2",
		`{"category": "bytitle", "query": "Joe Rogan", "explanation": "Searching for the Joe Rogan podcast"}`)},
	ReplySuccessByTerm: {Status: http.StatusOK, Body: message("msg_mock_3",
		`{"category": "byterm", "query": "quantum computing", "explanation": "Searching for podcasts about quantum computing"}`)},
	ReplySuccessWithMD: {Status: http.StatusOK, Body: message("msg_mock_4",
		"```json\n{\"category\":\"byperson\",\"query\":\"Test Person\",\"explanation\":\"Test\"}\n```")},
	ReplySuccessWithProse: {Status: http.StatusOK, Body: message("msg_mock_5",
		`Sure! Here is the interpretation: {"category": "bytitle", "query": "Lex Fridman", "explanation": "Show name"} Let me know if you need more.`)},
	ReplyLegacySearchType: {Status: http.StatusOK, Body: message("msg_mock_6",
		`{"search_type": "byperson", "query": "Elon Musk", "explanation": "Legacy field name"}`)},
	ReplyUnknownCategory: {Status: http.StatusOK, Body: message("msg_mock_7",
		`{"category": "byepisode", "query": "true crime", "explanation": "Not a real category"}`)},
	ReplyMalformedJSON: {Status: http.StatusOK, Body: message("msg_mock_8",
		`{"category": "byterm", "query": incomplete`)},
	ReplyEmptyQuery: {Status: http.StatusOK, Body: message("msg_mock_9",
		`{"category": "byterm", "query": "", "explanation": "Empty"}`)},
	ReplyEmptyContent: {Status: http.StatusOK, Body: `{
  "content": [],
  "id": "msg_mock_10",
  "model": "claude-haiku-4-5-20251001",
  "role": "assistant",
  "stop_reason": "end_turn",
  "type": "message",
  "usage": {"input_tokens": 100, "output_tokens": 0}
}`},
	ReplyAPIError: {Status: http.StatusUnauthorized, Body: `{
  "type": "error",
  "error": {"type": "invalid_request_error", "message": "Invalid API key"}
}`},
	ReplyMultipleFences: {Status: http.StatusOK, Body: message("msg_mock_11",
		"```json\n{\"category\":\"bytitle\",\"query\":\"Huberman Lab\"}\n```\nor maybe\n```json\n{\"category\":\"byterm\",\"query\":\"neuroscience\"}\n```")},
	ReplyNonTextFirstBlock: {Status: http.StatusOK, Body: `{
  "content": [{"type": "tool_use", "id": "toolu_1", "name": "search", "input": {}}],
  "id": "msg_mock_12",
  "type": "message"
}`},
}

// LookupReply returns the reply registered under name
func LookupReply(name string) (Reply, bool) {
	r, ok := replies[name]
	return r, ok
}

// MustReply returns the reply registered under name or panics
func MustReply(name string) Reply {
	r, ok := replies[name]
	if !ok {
		panic(fmt.Sprintf("fixtures: unknown reply scenario %q", name))
	}
	return r
}

// ReplyNames lists registered reply scenarios in sorted order
func ReplyNames() []string {
	names := make([]string, 0, len(replies))
	for name := range replies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SuccessReply builds a 200 reply whose text is the given object
func SuccessReply(category, query, explanation string) Reply {
	text, _ := json.Marshal(struct {
		Category    string `json:"category"`
		Query       string `json:"query"`
		Explanation string `json:"explanation"`
	}{category, query, explanation})
	return Reply{Status: http.StatusOK, Body: message("msg_oracle", string(text))}
}
