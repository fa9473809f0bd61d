package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cloo-solutions/podquery/internal/api"
	"github.com/cloo-solutions/podquery/internal/api/handlers"
	"github.com/cloo-solutions/podquery/internal/api/middleware"
	"github.com/cloo-solutions/podquery/internal/metrics"
)

type RouterConfig struct {
	QueryHandler *handlers.QueryHandler
	EvalHandler  *handlers.EvalHandler
	Logger       zerolog.Logger
	MaxBodyBytes int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.JSONBody(cfg.MaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/queries", cfg.QueryHandler.Run)
		r.Get("/history", cfg.QueryHandler.History)
		r.Delete("/history", cfg.QueryHandler.ClearHistory)
		if cfg.EvalHandler != nil {
			r.Get("/eval/latest", cfg.EvalHandler.Latest)
		}
	})

	return r
}
