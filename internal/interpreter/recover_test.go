package interpreter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/fixtures"
)

func envelope(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	require.NoError(t, err)
	return body
}

func TestParseReply_Fixtures(t *testing.T) {
	tests := []struct {
		scenario string
		category domain.Category
		query    string
		kind     domain.ErrorKind
	}{
		{fixtures.ReplySuccessByPerson, "byperson", "David Deutsch", ""},
		{fixtures.ReplySuccessByTitle, "bytitle", "Joe Rogan", ""},
		{fixtures.ReplySuccessByTerm, "byterm", "quantum computing", ""},
		{fixtures.ReplySuccessWithMD, "byperson", "Test Person", ""},
		{fixtures.ReplySuccessWithProse, "bytitle", "Lex Fridman", ""},
		{fixtures.ReplyLegacySearchType, "byperson", "Elon Musk", ""},
		{fixtures.ReplyUnknownCategory, "byepisode", "true crime", ""},
		{fixtures.ReplyMultipleFences, "bytitle", "Huberman Lab", ""},
		{fixtures.ReplyMalformedJSON, "", "", domain.KindMalformedReply},
		{fixtures.ReplyEmptyQuery, "", "", domain.KindMissingQuery},
		{fixtures.ReplyEmptyContent, "", "", domain.KindNoContent},
		{fixtures.ReplyNonTextFirstBlock, "", "", domain.KindNoContent},
		{fixtures.ReplyAPIError, "", "", domain.KindNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			got, err := ParseReply([]byte(fixtures.MustReply(tt.scenario).Body))

			if tt.kind != "" {
				require.Error(t, err)
				se, ok := domain.AsStageError(err)
				require.True(t, ok)
				assert.Equal(t, tt.kind, se.Kind)
				assert.Equal(t, domain.StageInterpret, se.Stage)
				assert.Equal(t, domain.Interpretation{}, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.query, got.Query)
		})
	}
}

func TestParseReply_MarkdownFixturePreservesExplanation(t *testing.T) {
	got, err := ParseReply([]byte(fixtures.MustReply(fixtures.ReplySuccessWithMD).Body))
	require.NoError(t, err)
	assert.Equal(t, domain.NewInterpretation("byperson", "Test Person", "Test"), got)
}

func TestParseReply_TopLevel(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind domain.ErrorKind
	}{
		{"not json", `not json at all`, domain.KindMalformedReply},
		{"truncated envelope", `{"content": [`, domain.KindMalformedReply},
		{"array", `[{"type":"text","text":"{}"}]`, domain.KindMalformedReply},
		{"no content field", `{"id":"msg"}`, domain.KindNoContent},
		{"content not array", `{"content":"text"}`, domain.KindNoContent},
		{"first block not object", `{"content":["{\"query\":\"x\"}"]}`, domain.KindNoContent},
		{"text not string", `{"content":[{"type":"text","text":42}]}`, domain.KindNoContent},
		{"whitespace text", `{"content":[{"type":"text","text":"  \n "}]}`, domain.KindNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReply([]byte(tt.body))
			se, ok := domain.AsStageError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, se.Kind)
		})
	}
}

func TestParseReply_Text(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		category    domain.Category
		query       string
		explanation string
		kind        domain.ErrorKind
	}{
		{
			name:     "plain object",
			text:     `{"category":"bytitle","query":"Joe Rogan"}`,
			category: "bytitle", query: "Joe Rogan",
		},
		{
			name:     "fence without language tag",
			text:     "```\n{\"category\":\"byterm\",\"query\":\"AI\"}\n```",
			category: "byterm", query: "AI",
		},
		{
			name:     "fence with uppercase tag",
			text:     "```JSON\n{\"category\":\"byperson\",\"query\":\"Sam Harris\"}\n```",
			category: "byperson", query: "Sam Harris",
		},
		{
			name:     "fence on one line",
			text:     "```{\"category\": \"bytitle\", \"query\": \"Huberman Lab\"}```",
			category: "bytitle", query: "Huberman Lab",
		},
		{
			name:     "backticks inside a string value",
			text:     "```json\n{\"category\":\"byterm\",\"query\":\"markdown ``` tips\",\"explanation\":\"x\"}\n```",
			category: "byterm", query: "markdown ``` tips", explanation: "x",
		},
		{
			name:     "duplicate keys resolve to the last value",
			text:     `{"category":"byperson","category":"bytitle","query":"Dup"}`,
			category: "bytitle", query: "Dup",
		},
		{
			name:     "opening fence without closer",
			text:     "```json\n{\"category\":\"byterm\",\"query\":\"true crime\"}",
			category: "byterm", query: "true crime",
		},
		{
			name:     "trailing prose after fence",
			text:     "```json\n{\"category\":\"byterm\",\"query\":\"mental health\"}\n```\nHope this helps!",
			category: "byterm", query: "mental health",
		},
		{
			name:     "missing category defaults to byterm",
			text:     `{"query":"quantum computing"}`,
			category: "byterm", query: "quantum computing",
		},
		{
			name:     "category wins over legacy field",
			text:     `{"category":"bytitle","search_type":"byperson","query":"Tim Ferriss"}`,
			category: "bytitle", query: "Tim Ferriss",
		},
		{
			name:     "category passed through unvalidated",
			text:     `{"category":"BYPERSON","query":"Naval Ravikant"}`,
			category: "BYPERSON", query: "Naval Ravikant",
		},
		{
			name:     "nested braces",
			text:     `Result: {"category":"byterm","query":"ai","explanation":"{nested}"} done`,
			category: "byterm", query: "ai", explanation: "{nested}",
		},
		{
			name:     "query is trimmed",
			text:     `{"category":"byterm","query":"  crypto  "}`,
			category: "byterm", query: "crypto",
		},
		{name: "truncated json", text: `{"category": "byterm", "query": incomplete`, kind: domain.KindMalformedReply},
		{name: "no braces", text: `incomplete`, kind: domain.KindMalformedReply},
		{name: "reversed braces", text: `} nothing {`, kind: domain.KindMalformedReply},
		{name: "empty fence", text: "```json\n```", kind: domain.KindMalformedReply},
		{name: "empty query", text: `{"category":"byterm","query":""}`, kind: domain.KindMissingQuery},
		{name: "whitespace query", text: `{"category":"byterm","query":"   "}`, kind: domain.KindMissingQuery},
		{name: "absent query", text: `{"category":"byterm"}`, kind: domain.KindMissingQuery},
		{name: "non-string query", text: `{"category":"byterm","query":7}`, kind: domain.KindMissingQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReply(envelope(t, tt.text))

			if tt.kind != "" {
				se, ok := domain.AsStageError(err)
				require.True(t, ok, "expected StageError, got %v", err)
				assert.Equal(t, tt.kind, se.Kind)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.query, got.Query)
			assert.Equal(t, tt.explanation, got.Explanation)
		})
	}
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, "plain", stripFence("plain"))
	assert.Equal(t, "", stripFence("```"))
	assert.Equal(t, "{\"first\":1}", stripFence("```json\n{\"first\":1}\n```\n```json\n{\"second\":2}\n```"))
	assert.Equal(t, "{\"q\":\"a ``` b\"}", stripFence("```json\n{\"q\":\"a ``` b\"}\n```"))
	assert.Equal(t, "{\"q\":\"a ``` b\"}", stripFence("```{\"q\":\"a ``` b\"}```"))
}

func TestLastField(t *testing.T) {
	obj := gjson.Parse(`{"query":"first","query":"second","other":1}`)
	assert.Equal(t, "second", lastField(obj, "query").String())
	assert.False(t, lastField(obj, "missing").Exists())
}

func TestExtractObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractObject(`prefix {"a":1} suffix`))
	assert.Equal(t, `no object`, extractObject(`no object`))
	assert.Equal(t, `} {`, extractObject(`} {`))
}
