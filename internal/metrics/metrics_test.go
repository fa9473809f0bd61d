package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/cloo-solutions/podquery/internal/domain"
)

func TestRecordRun(t *testing.T) {
	interp := domain.NewInterpretation("bytitle", "Joe Rogan", "")

	before := testutil.ToFloat64(PipelineRunsTotal.WithLabelValues(OutcomePartial))
	RecordRun(domain.PipelineResult{
		Interpretation: &interp,
		Error:          domain.NewStageError(domain.StageSearch, domain.KindTimeout, ""),
	})
	assert.Equal(t, before+1, testutil.ToFloat64(PipelineRunsTotal.WithLabelValues(OutcomePartial)))

	before = testutil.ToFloat64(PipelineRunsTotal.WithLabelValues(OutcomeFailed))
	RecordRun(domain.PipelineResult{Error: domain.NewStageError(domain.StageSanitize, domain.KindInputRejected, "")})
	assert.Equal(t, before+1, testutil.ToFloat64(PipelineRunsTotal.WithLabelValues(OutcomeFailed)))
}

func TestRecordStage(t *testing.T) {
	counter := StageFailuresTotal.WithLabelValues("interpret", "missing_query")
	before := testutil.ToFloat64(counter)

	RecordStage(domain.StateInterpreting, 10*time.Millisecond, domain.NewStageError(domain.StageInterpret, domain.KindMissingQuery, ""))
	RecordStage(domain.StateNormalizing, time.Microsecond, nil)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordUpstreamRequest(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("search", "error"))
	RecordUpstreamRequest("search", 0)
	assert.Equal(t, before+1, testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("search", "error")))
}

func TestHandler(t *testing.T) {
	RecordUpstreamRequest("model", 200)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "podquery_upstream_requests_total")
}

func TestRecordEvalPassRate(t *testing.T) {
	RecordEvalPassRate(87.5)
	assert.Equal(t, 87.5, testutil.ToFloat64(EvalPassRate))
}
