package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/podquery/internal/api/handlers"
	"github.com/cloo-solutions/podquery/internal/cli"
	"github.com/cloo-solutions/podquery/internal/config"
	"github.com/cloo-solutions/podquery/internal/eval"
	"github.com/cloo-solutions/podquery/internal/interpreter"
	"github.com/cloo-solutions/podquery/internal/jobs"
	"github.com/cloo-solutions/podquery/internal/logging"
	"github.com/cloo-solutions/podquery/internal/pipeline"
	"github.com/cloo-solutions/podquery/internal/podcastindex"
	"github.com/cloo-solutions/podquery/internal/server"
	"github.com/cloo-solutions/podquery/internal/session"
	"github.com/cloo-solutions/podquery/internal/storage"
	"github.com/cloo-solutions/podquery/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the podquery API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (default from PODQUERY_PORT)")
	cmd.Flags().Int64("max-body-bytes", 64*1024, "Maximum request body size")
	cmd.Flags().Duration("eval-interval", 0, "Run the built-in eval on this interval (0 disables)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	logger := logging.New(os.Stdout, cfg.Debug)

	if cfg.HasSentry() {
		// 10% sampling in production, everything in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		flush, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
			Logger:           logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("telemetry init failed, continuing without tracing")
		} else {
			defer flush()
		}
	}

	history := session.NewHistory()
	p, closeClients, err := buildPipeline(cfg, history, logger)
	if err != nil {
		return err
	}
	defer closeClients()

	maxBody, _ := cmd.Flags().GetInt64("max-body-bytes")
	routerCfg := server.RouterConfig{
		QueryHandler: handlers.NewQueryHandler(p, history),
		Logger:       logger,
		MaxBodyBytes: maxBody,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if interval, _ := cmd.Flags().GetDuration("eval-interval"); interval > 0 {
		job, err := newEvalJob(ctx, cfg, p, logger)
		if err != nil {
			return err
		}
		worker := jobs.NewWorker(job, jobs.WorkerConfig{
			Name:       "eval-worker",
			Interval:   interval,
			RunOnStart: true,
			Logger:     logger,
		})
		go worker.Start(ctx)
		defer worker.Stop()
		routerCfg.EvalHandler = handlers.NewEvalHandler(job)
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("provider", cfg.ModelProvider).
			Bool("search", p.CanSearch()).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}
	logger.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server exited")
	return nil
}

// buildPipeline wires the live interpreter and, when credentials are
// present, the PodcastIndex searcher. Both record into history.
func buildPipeline(cfg *config.Config, history *session.History, logger zerolog.Logger) (*pipeline.Pipeline, func(), error) {
	transport, err := cli.ModelTransport(cfg)
	if err != nil {
		return nil, nil, err
	}

	interp := interpreter.NewClient(transport, interpreter.Config{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxReplyTokens,
		Timeout:   cfg.RequestTimeout,
		History:   history,
		Logger:    logger,
	})
	closers := []func() error{interp.Close}

	opts := pipeline.Options{MaxResults: cfg.MaxResults, Logger: logger}
	if cfg.HasSearch() {
		searcher, err := podcastindex.NewClient(podcastindex.Config{
			APIKey:    cfg.PodcastIndexAPIKey,
			APISecret: cfg.PodcastIndexAPISecret,
			BaseURL:   cfg.PodcastIndexBaseURL,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.RequestTimeout,
			History:   history,
			Logger:    logger,
		})
		if err != nil {
			_ = interp.Close()
			return nil, nil, err
		}
		closers = append(closers, searcher.Close)
		opts.Searcher = searcher
	} else {
		logger.Warn().Msg("PodcastIndex credentials not set, search requests will fail")
	}

	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	return pipeline.New(interp, opts), closeAll, nil
}

// newEvalJob scores the live pipeline against the built-in cases. Reports
// go to S3 when it is configured.
func newEvalJob(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger zerolog.Logger) (*jobs.EvalJob, error) {
	jobCfg := jobs.EvalJobConfig{
		Runner:  p,
		Options: eval.Options{Concurrency: pipeline.DefaultConcurrency},
		Logger:  logger,
	}

	if cfg.HasS3() {
		store, err := storage.FromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info().Str("bucket", store.Bucket()).Msg("scheduled eval reports will be uploaded")
		jobCfg.Uploader = store
	}

	return jobs.NewEvalJob(jobCfg), nil
}
