// Package eval scores pipeline runs against interpretation test cases.
package eval

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	json5 "github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/fixtures"
	"github.com/cloo-solutions/podquery/internal/pipeline"
)

// Runner executes a batch of pipeline runs in input order.
type Runner interface {
	RunBatch(ctx context.Context, inputs []string, opts pipeline.BatchOptions) []domain.PipelineResult
}

type Options struct {
	Concurrency int
	Search      bool
	MaxResults  int
	Offline     bool
}

type Summary struct {
	Total    int     `json:"total" yaml:"total"`
	Passed   int     `json:"passed" yaml:"passed"`
	Failed   int     `json:"failed" yaml:"failed"`
	Errored  int     `json:"errored" yaml:"errored"`
	PassRate float64 `json:"pass_rate" yaml:"pass_rate"`
}

type CaseResult struct {
	Input            string `json:"input" yaml:"input"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	ExpectedCategory string `json:"expected_category" yaml:"expected_category"`
	ExpectedQuery    string `json:"expected_query" yaml:"expected_query"`
	Category         string `json:"category,omitempty" yaml:"category,omitempty"`
	Query            string `json:"query,omitempty" yaml:"query,omitempty"`
	Records          int    `json:"records,omitempty" yaml:"records,omitempty"`
	Passed           bool   `json:"passed" yaml:"passed"`
	ErrorKind        string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error            string `json:"error,omitempty" yaml:"error,omitempty"`
	RunID            string `json:"run_id" yaml:"run_id"`
}

type Report struct {
	ID          string       `json:"id" yaml:"id"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
	Offline     bool         `json:"offline" yaml:"offline"`
	Search      bool         `json:"search" yaml:"search"`
	Summary     Summary      `json:"summary" yaml:"summary"`
	Cases       []CaseResult `json:"cases" yaml:"cases"`
}

// Run evaluates every case and returns a report in case order. A case
// passes when the interpretation matches and, if requested, the search
// also succeeded.
func Run(ctx context.Context, runner Runner, cases []fixtures.TestCase, opts Options) *Report {
	inputs := make([]string, len(cases))
	for i, tc := range cases {
		inputs[i] = tc.Input
	}

	results := runner.RunBatch(ctx, inputs, pipeline.BatchOptions{
		RunOptions:  pipeline.RunOptions{Search: opts.Search, MaxResults: opts.MaxResults},
		Concurrency: opts.Concurrency,
	})

	report := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Offline:     opts.Offline,
		Search:      opts.Search,
		Cases:       make([]CaseResult, len(cases)),
	}

	for i, tc := range cases {
		cr := score(tc, results[i])
		report.Cases[i] = cr

		switch {
		case cr.Passed:
			report.Summary.Passed++
		case cr.ErrorKind != "":
			report.Summary.Errored++
		default:
			report.Summary.Failed++
		}
	}

	report.Summary.Total = len(cases)
	if report.Summary.Total > 0 {
		report.Summary.PassRate = float64(report.Summary.Passed) / float64(report.Summary.Total) * 100
	}
	return report
}

func score(tc fixtures.TestCase, res domain.PipelineResult) CaseResult {
	cr := CaseResult{
		Input:            tc.Input,
		Description:      tc.Description,
		ExpectedCategory: tc.ExpectedCategory,
		ExpectedQuery:    tc.ExpectedQuery,
		RunID:            res.RunID,
	}

	if res.Interpretation != nil {
		cr.Category = string(res.Interpretation.Category)
		cr.Query = res.Interpretation.Query
	}
	if res.Search != nil {
		cr.Records = len(res.Search.Records)
	}
	if res.Error != nil {
		cr.ErrorKind = string(res.Error.Kind)
		cr.Error = res.Error.Error()
	}

	cr.Passed = res.Error == nil && res.Interpretation != nil &&
		tc.Matches(res.Interpretation.Category, res.Interpretation.Query)
	return cr
}

// Failing returns the cases that did not pass.
func (r *Report) Failing() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

type caseFile struct {
	Cases []fixtures.TestCase `json:"cases"`
}

// ParseCases accepts either {"cases": [...]} or a bare array, in JSON5.
func ParseCases(data []byte) ([]fixtures.TestCase, error) {
	var file caseFile
	if err := json5.Unmarshal(data, &file); err != nil || len(file.Cases) == 0 {
		var cases []fixtures.TestCase
		if err := json5.Unmarshal(data, &cases); err != nil {
			return nil, fmt.Errorf("failed to parse eval cases: %w", err)
		}
		file.Cases = cases
	}

	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("no eval cases provided")
	}
	for i, tc := range file.Cases {
		if tc.Input == "" {
			return nil, fmt.Errorf("eval case %d: input is required", i)
		}
		if !domain.Category(tc.ExpectedCategory).IsValid() {
			return nil, fmt.Errorf("eval case %d: unknown expected_category %q", i, tc.ExpectedCategory)
		}
	}
	return file.Cases, nil
}

// LoadCases reads a case file, or returns the built-in cases for an empty path.
func LoadCases(path string) ([]fixtures.TestCase, error) {
	if path == "" {
		return fixtures.Cases(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read eval file: %w", err)
	}
	return ParseCases(data)
}
