package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

type WorkerConfig struct {
	// Name tags the worker's log events.
	Name     string
	Interval time.Duration
	// RunOnStart runs the job once before the first tick.
	RunOnStart bool
	// Timeout bounds a single run; zero means the interval.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Worker runs a JobProcessor every Interval. Runs never overlap: a tick
// that arrives while a run is in flight is dropped.
type Worker struct {
	processor JobProcessor
	cfg       WorkerConfig
	logger    zerolog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewWorker(processor JobProcessor, cfg WorkerConfig) *Worker {
	if cfg.Name == "" {
		cfg.Name = "worker"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	return &Worker{
		processor: processor,
		cfg:       cfg,
		logger:    cfg.Logger.With().Str("component", cfg.Name).Logger(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start blocks until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.cfg.Interval).Bool("run_on_start", w.cfg.RunOnStart).Msg("worker started")
	if w.cfg.RunOnStart {
		w.run(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker stopped: context cancelled")
			return
		case <-w.stop:
			w.logger.Info().Msg("worker stopped: stop requested")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *Worker) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	start := time.Now()
	if err := w.processor.ProcessJobs(runCtx); err != nil {
		w.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("job failed")
		return
	}
	w.logger.Debug().Dur("elapsed", time.Since(start)).Msg("job finished")
}

// Stop may be called more than once, but only after Start.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
