package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloo-solutions/podquery/internal/domain"
)

var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podquery_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "podquery_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage"},
	)

	StageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podquery_stage_failures_total",
			Help: "Total number of stage failures by stage and kind",
		},
		[]string{"stage", "kind"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "podquery_upstream_requests_total",
			Help: "Total number of upstream calls by service and status",
		},
		[]string{"service", "status"},
	)

	EvalPassRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "podquery_eval_pass_rate",
			Help: "Pass rate (percent) of the most recent scheduled eval",
		},
	)
)

// Outcome labels for PipelineRunsTotal
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// RecordRun counts a finished pipeline run.
func RecordRun(res domain.PipelineResult) {
	outcome := OutcomeSuccess
	switch {
	case res.Partial():
		outcome = OutcomePartial
	case !res.Succeeded():
		outcome = OutcomeFailed
	}
	PipelineRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage observes how long a state took and counts its failure, if any.
func RecordStage(state domain.RunState, elapsed time.Duration, err *domain.StageError) {
	StageDuration.WithLabelValues(string(state)).Observe(elapsed.Seconds())
	if err != nil {
		StageFailuresTotal.WithLabelValues(string(err.Stage), string(err.Kind)).Inc()
	}
}

// RecordUpstreamRequest counts one outbound call. A zero status means no
// reply was received.
func RecordUpstreamRequest(service string, status int) {
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequestsTotal.WithLabelValues(service, label).Inc()
}

// RecordEvalPassRate sets the gauge for the latest scheduled eval.
func RecordEvalPassRate(rate float64) {
	EvalPassRate.Set(rate)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
