package api

import (
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/podquery/internal/domain"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Detail *domain.ErrorView `json:"detail,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// StageErrorStatus maps pipeline failures to HTTP status codes
func StageErrorStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	se, ok := domain.AsStageError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch se.Kind {
	case domain.KindInputRejected:
		return http.StatusUnprocessableEntity
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// HandleError writes an appropriate error response based on the error type
func HandleError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	if se, ok := domain.AsStageError(err); ok {
		resp.Detail = se.View()
	}
	JSON(w, StageErrorStatus(err), resp)
}

// Result writes a pipeline result. Failed runs keep the full result body,
// so a partial interpretation is still returned alongside the error.
func Result(w http.ResponseWriter, res domain.PipelineResult) {
	if res.Error == nil {
		Success(w, http.StatusOK, res)
		return
	}
	JSON(w, StageErrorStatus(res.Error), SuccessResponse{Data: res})
}
