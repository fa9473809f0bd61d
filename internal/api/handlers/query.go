package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/podquery/internal/api"
	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/pagination"
	"github.com/cloo-solutions/podquery/internal/pipeline"
	"github.com/cloo-solutions/podquery/internal/session"
)

// maxResultsLimit caps max_results and the history page size.
const maxResultsLimit = 1000

type QueryRunner interface {
	Run(ctx context.Context, raw string, opts pipeline.RunOptions) domain.PipelineResult
}

type QueryHandler struct {
	runner  QueryRunner
	history *session.History
}

func NewQueryHandler(runner QueryRunner, history *session.History) *QueryHandler {
	if history == nil {
		history = session.NewHistory()
	}
	return &QueryHandler{runner: runner, history: history}
}

type QueryRequest struct {
	Query      string `json:"query"`
	Search     bool   `json:"search"`
	MaxResults int    `json:"max_results,omitempty"`
}

type HistoryResponse struct {
	Entries []session.Entry `json:"entries"`
	Count   int             `json:"count"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

// Run handles POST /v1/queries
func (h *QueryHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.MaxResults < 0 || req.MaxResults > maxResultsLimit {
		api.Error(w, http.StatusBadRequest, "max_results must be between 0 and 1000")
		return
	}

	res := h.runner.Run(r.Context(), req.Query, pipeline.RunOptions{
		Search:     req.Search,
		MaxResults: req.MaxResults,
	})
	api.Result(w, res)
}

// History handles GET /v1/history
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	entries := h.history.Entries()
	if service := r.URL.Query().Get("service"); service != "" {
		filtered := make([]session.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Service == service {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxResultsLimit {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	page, next, err := pagination.Page(entries, r.URL.Query().Get("cursor"), limit,
		func(e session.Entry) string { return e.ID },
		func(e session.Entry) time.Time { return e.Request.Timestamp })
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	api.Success(w, http.StatusOK, HistoryResponse{
		Entries: page,
		Count:   len(page),
		Cursor:  next,
		HasMore: next != "",
	})
}

// ClearHistory handles DELETE /v1/history
func (h *QueryHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.history.Clear()
	w.WriteHeader(http.StatusNoContent)
}
