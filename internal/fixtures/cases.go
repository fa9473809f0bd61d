package fixtures

import (
	"strings"

	"github.com/cloo-solutions/podquery/internal/domain"
)

// TestCase pairs a natural-language input with the interpretation a
// correct model should produce
type TestCase struct {
	Input            string `json:"input" yaml:"input"`
	ExpectedCategory string `json:"expected_category" yaml:"expected_category"`
	ExpectedQuery    string `json:"expected_query" yaml:"expected_query"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Matches reports whether an interpretation satisfies the case. The
// category must match exactly; the query is compared case-insensitively.
func (tc TestCase) Matches(category domain.Category, query string) bool {
	return string(category) == tc.ExpectedCategory &&
		strings.EqualFold(query, tc.ExpectedQuery)
}

// Cases returns the built-in interpretation cases in reporting order
func Cases() []TestCase {
	return []TestCase{
		// Person
		{"recent podcasts with david deutsch", "byperson", "David Deutsch", "Person search with filler words"},
		{"episodes with elon musk", "byperson", "Elon Musk", "Person search - episodes with"},
		{"interviews featuring naval ravikant", "byperson", "Naval Ravikant", "Person search - interviews featuring"},
		{"sam harris conversations", "byperson", "Sam Harris", "Person search - conversations"},

		// Title
		{"joe rogans recent guests", "bytitle", "Joe Rogan", "Title search with possessive and filler"},
		{"find the lex fridman podcast", "bytitle", "Lex Fridman", "Title search - find the podcast"},
		{"huberman lab episodes", "bytitle", "Huberman Lab", "Title search - podcast name + episodes"},
		{"show me the tim ferriss show", "bytitle", "Tim Ferriss", "Title search - show me"},

		// Term
		{"podcasts about quantum computing", "byterm", "quantum computing", "Topic search - about"},
		{"artificial intelligence discussions", "byterm", "artificial intelligence", "Topic search - discussions"},
		{"cryptocurrency and blockchain", "byterm", "cryptocurrency blockchain", "Topic search - multiple terms"},
		{"mental health podcasts", "byterm", "mental health", "Topic search - health topic"},

		// Edge cases
		{"AI", "byterm", "AI", "Single short term"},
		{"true crime", "byterm", "true crime", "Genre search"},
	}
}

// RejectedInputs are inputs the sanitizer must reject
func RejectedInputs() []string {
	return []string{
		"",
		"   ",
		strings.Repeat("a", domain.MaxQueryLength+1),
		"<>;&|",
	}
}

// SanitizationCase is an input and its expected sanitized form
type SanitizationCase struct {
	Input    string
	Expected string
}

// SanitizationCases returns inputs the sanitizer must alter or keep
func SanitizationCases() []SanitizationCase {
	return []SanitizationCase{
		{"hello<world>", "helloworld"},
		{"test;query", "testquery"},
		{"search & find", "search  find"},
		{"pipe|test", "pipetest"},
		{"  spaces  ", "spaces"},
		{"normal query", "normal query"},
		{"<script>alert(1)</script>", "scriptalert(1)/script"},
	}
}
