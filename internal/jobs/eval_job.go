package jobs

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cloo-solutions/podquery/internal/eval"
	"github.com/cloo-solutions/podquery/internal/fixtures"
	"github.com/cloo-solutions/podquery/internal/metrics"
)

// DefaultReportPrefix is the object key prefix for scheduled reports
const DefaultReportPrefix = "eval/scheduled"

// ReportUploader stores a rendered report and returns a link to it
type ReportUploader interface {
	UploadReport(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type EvalJobConfig struct {
	Runner    eval.Runner
	Cases     []fixtures.TestCase
	Options   eval.Options
	Uploader  ReportUploader
	KeyPrefix string
	Logger    zerolog.Logger
}

// EvalJob scores the live pipeline against the test cases on every tick.
type EvalJob struct {
	runner    eval.Runner
	cases     []fixtures.TestCase
	opts      eval.Options
	uploader  ReportUploader
	keyPrefix string
	logger    zerolog.Logger

	mu   sync.RWMutex
	last *eval.Report
}

func NewEvalJob(cfg EvalJobConfig) *EvalJob {
	if len(cfg.Cases) == 0 {
		cfg.Cases = fixtures.Cases()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultReportPrefix
	}
	return &EvalJob{
		runner:    cfg.Runner,
		cases:     cfg.Cases,
		opts:      cfg.Options,
		uploader:  cfg.Uploader,
		keyPrefix: cfg.KeyPrefix,
		logger:    cfg.Logger.With().Str("component", "eval_job").Logger(),
	}
}

// ProcessJobs runs one evaluation and uploads its JSON report when an
// uploader is configured.
func (j *EvalJob) ProcessJobs(ctx context.Context) error {
	report := eval.Run(ctx, j.runner, j.cases, j.opts)
	metrics.RecordEvalPassRate(report.Summary.PassRate)

	j.mu.Lock()
	j.last = report
	j.mu.Unlock()

	j.logger.Info().
		Str("report_id", report.ID).
		Int("passed", report.Summary.Passed).
		Int("failed", report.Summary.Failed).
		Int("errored", report.Summary.Errored).
		Float64("pass_rate", report.Summary.PassRate).
		Msg("scheduled eval finished")

	if j.uploader == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := eval.WriteJSON(&buf, report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	key := ReportKey(j.keyPrefix, report)
	if _, err := j.uploader.UploadReport(ctx, key, eval.ContentType(eval.FormatJSON), buf.Bytes()); err != nil {
		return fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	j.logger.Debug().Str("key", key).Msg("report uploaded")
	return nil
}

// Last returns the most recent report, or nil before the first run
func (j *EvalJob) Last() *eval.Report {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}

// ReportKey names a report object by its generation time and ID
func ReportKey(prefix string, r *eval.Report) string {
	return fmt.Sprintf("%s/%s-%s.json", prefix, r.GeneratedAt.UTC().Format("20060102T150405Z"), r.ID)
}
