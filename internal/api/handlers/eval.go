package handlers

import (
	"net/http"

	"github.com/cloo-solutions/podquery/internal/api"
	"github.com/cloo-solutions/podquery/internal/eval"
)

type ReportSource interface {
	Last() *eval.Report
}

type EvalHandler struct {
	source ReportSource
}

func NewEvalHandler(source ReportSource) *EvalHandler {
	return &EvalHandler{source: source}
}

// Latest handles GET /v1/eval/latest
func (h *EvalHandler) Latest(w http.ResponseWriter, r *http.Request) {
	report := h.source.Last()
	if report == nil {
		api.Error(w, http.StatusNotFound, "no scheduled eval has finished yet")
		return
	}
	api.Success(w, http.StatusOK, report)
}
