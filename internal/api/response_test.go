package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/podquery/internal/domain"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "value", result["key"])
}

func TestJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusCreated, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var result SuccessResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "123", data["id"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "invalid json")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "invalid json", result.Error)
	assert.Nil(t, result.Detail)
}

func TestStageErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"invalid input", domain.NewStageError(domain.StageSanitize, domain.KindInputRejected, domain.RejectEmpty), http.StatusUnprocessableEntity},
		{"interpret timeout", domain.NewStageError(domain.StageInterpret, domain.KindTimeout, ""), http.StatusGatewayTimeout},
		{"search timeout", domain.NewStageError(domain.StageSearch, domain.KindTimeout, ""), http.StatusGatewayTimeout},
		{"configuration", domain.NewStageError(domain.StageSearch, domain.KindConfiguration, ""), http.StatusServiceUnavailable},
		{"malformed reply", domain.NewStageError(domain.StageInterpret, domain.KindMalformedReply, ""), http.StatusBadGateway},
		{"missing query", domain.NewStageError(domain.StageInterpret, domain.KindMissingQuery, ""), http.StatusBadGateway},
		{"upstream", domain.NewUpstreamError(domain.StageSearch, domain.KindUpstream, 401, "bad auth"), http.StatusBadGateway},
		{"non-stage error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StageErrorStatus(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, domain.NewStageError(domain.StageConfig, domain.KindConfiguration, "PODCASTINDEX_API_KEY is not set"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var result ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Detail)
	assert.Equal(t, domain.KindConfiguration, result.Detail.Kind)
	assert.Contains(t, result.Error, "PODCASTINDEX_API_KEY")
}

func TestResult(t *testing.T) {
	interp := domain.NewInterpretation("bytitle", "Joe Rogan", "")

	w := httptest.NewRecorder()
	Result(w, domain.PipelineResult{RunID: "ok", State: domain.StateDone, Interpretation: &interp})
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	Result(w, domain.PipelineResult{
		RunID:          "partial",
		State:          domain.StateFailed,
		Interpretation: &interp,
		Error:          domain.NewStageError(domain.StageSearch, domain.KindTimeout, ""),
	})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	var body struct {
		Data struct {
			Interpretation *domain.Interpretation `json:"interpretation"`
			Error          *domain.ErrorView      `json:"error"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Data.Interpretation)
	assert.Equal(t, "Joe Rogan", body.Data.Interpretation.Query)
	require.NotNil(t, body.Data.Error)
	assert.Equal(t, domain.KindTimeout, body.Data.Error.Kind)
}
