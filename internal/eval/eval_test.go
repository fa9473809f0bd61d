package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/fixtures"
	"github.com/cloo-solutions/podquery/internal/interpreter"
	"github.com/cloo-solutions/podquery/internal/pipeline"
)

func oracleRunner(searcher pipeline.Searcher, cases ...fixtures.TestCase) *pipeline.Pipeline {
	client := interpreter.NewClient(fixtures.NewOracleTransport(cases...), interpreter.Config{Logger: zerolog.Nop()})
	return pipeline.New(client, pipeline.Options{Searcher: searcher, Logger: zerolog.Nop()})
}

func TestRun_OracleAllPass(t *testing.T) {
	cases := fixtures.Cases()

	report := Run(context.Background(), oracleRunner(nil), cases, Options{Concurrency: 4, Offline: true})

	assert.Equal(t, len(cases), report.Summary.Total)
	assert.Equal(t, len(cases), report.Summary.Passed)
	assert.Zero(t, report.Summary.Failed)
	assert.Zero(t, report.Summary.Errored)
	assert.InDelta(t, 100.0, report.Summary.PassRate, 0.001)
	assert.Empty(t, report.Failing())
	assert.NotEmpty(t, report.ID)

	for i, tc := range cases {
		assert.Equal(t, tc.Input, report.Cases[i].Input)
	}
}

func TestRun_FailedAndErroredCases(t *testing.T) {
	// Oracle knows the first case but answers the second with the wrong query.
	runner := oracleRunner(nil,
		fixtures.TestCase{Input: "AI", ExpectedCategory: "byterm", ExpectedQuery: "AI"},
		fixtures.TestCase{Input: "huberman lab episodes", ExpectedCategory: "bytitle", ExpectedQuery: "Huberman"},
	)
	cases := []fixtures.TestCase{
		{Input: "AI", ExpectedCategory: "byterm", ExpectedQuery: "ai"},
		{Input: "huberman lab episodes", ExpectedCategory: "bytitle", ExpectedQuery: "Huberman Lab"},
		{Input: "unknown to the oracle", ExpectedCategory: "byterm", ExpectedQuery: "x"},
	}

	report := Run(context.Background(), runner, cases, Options{})

	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Passed)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Errored)
	assert.InDelta(t, 33.33, report.Summary.PassRate, 0.01)
	assert.True(t, report.Cases[0].Passed)
	assert.False(t, report.Cases[1].Passed)
	assert.Equal(t, "Huberman", report.Cases[1].Query)
	assert.Equal(t, string(domain.KindMissingQuery), report.Cases[2].ErrorKind)
	assert.Len(t, report.Failing(), 2)
}

func TestRun_SearchFailureFailsCase(t *testing.T) {
	searcher := &fixtures.StaticSearcher{Err: domain.NewStageError(domain.StageSearch, domain.KindTimeout, "")}
	cases := fixtures.Cases()[:2]

	report := Run(context.Background(), oracleRunner(searcher), cases, Options{Search: true, MaxResults: 3})

	assert.Equal(t, 2, report.Summary.Errored)
	assert.Equal(t, "timeout", report.Cases[0].ErrorKind)
	assert.Equal(t, "byperson", report.Cases[0].Category)
	require.Len(t, searcher.Calls(), 2)
	assert.Equal(t, 3, searcher.Calls()[0].MaxResults)
}

func TestParseCases(t *testing.T) {
	wrapped := []byte(`{
		// trailing commas and comments are allowed
		cases: [
			{input: "AI", expected_category: "byterm", expected_query: "AI",},
		],
	}`)
	cases, err := ParseCases(wrapped)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "AI", cases[0].Input)
	assert.Equal(t, "byterm", cases[0].ExpectedCategory)

	bare := []byte(`[{"input": "true crime", "expected_category": "byterm", "expected_query": "true crime"}]`)
	cases, err = ParseCases(bare)
	require.NoError(t, err)
	assert.Len(t, cases, 1)
}

func TestParseCases_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", `not json`},
		{"empty", `[]`},
		{"missing input", `[{"expected_category": "byterm", "expected_query": "x"}]`},
		{"bad category", `[{"input": "x", "expected_category": "bygenre", "expected_query": "x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCases([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadCases(t *testing.T) {
	cases, err := LoadCases("")
	require.NoError(t, err)
	assert.Equal(t, fixtures.Cases(), cases)

	path := filepath.Join(t.TempDir(), "cases.json5")
	require.NoError(t, os.WriteFile(path, []byte(`[{input: "AI", expected_category: "byterm", expected_query: "AI"}]`), 0o600))
	cases, err = LoadCases(path)
	require.NoError(t, err)
	assert.Len(t, cases, 1)

	_, err = LoadCases(filepath.Join(t.TempDir(), "missing.json5"))
	assert.Error(t, err)
}

func sampleReport() *Report {
	return &Report{
		ID:      "r-1",
		Offline: true,
		Summary: Summary{Total: 2, Passed: 1, Failed: 1, PassRate: 50},
		Cases: []CaseResult{
			{Input: "AI", ExpectedCategory: "byterm", ExpectedQuery: "AI", Category: "byterm", Query: "AI", Passed: true, RunID: "a"},
			{Input: "huberman lab episodes", ExpectedCategory: "bytitle", ExpectedQuery: "Huberman Lab", Category: "byterm", Query: "huberman", RunID: "b"},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatText))

	out := buf.String()
	assert.Contains(t, out, "Eval r-1 (offline)")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, `FAIL  "huberman lab episodes"`)
	assert.Contains(t, out, `(want bytitle "Huberman Lab")`)
	assert.Contains(t, out, "Passed: 1/2 (50.0%)")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatJSON))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Summary.Total)
	assert.Len(t, decoded.Cases, 2)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	summary, ok := decoded["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, summary["passed"])
	assert.Contains(t, buf.String(), "expected_query: Huberman Lab")
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, sampleReport(), "xml"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType(FormatJSON))
	assert.Equal(t, "application/yaml", ContentType(FormatYAML))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType(FormatText))
}
