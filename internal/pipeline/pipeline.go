// Package pipeline runs one natural-language query through sanitization,
// interpretation, normalization and an optional search.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/podquery/internal/domain"
	"github.com/cloo-solutions/podquery/internal/metrics"
	"github.com/cloo-solutions/podquery/internal/telemetry"
)

// DefaultConcurrency bounds RunBatch when no limit is given.
const DefaultConcurrency = 4

// Interpreter classifies a sanitized query.
type Interpreter interface {
	Interpret(ctx context.Context, query domain.SanitizedQuery) (domain.Interpretation, error)
}

// Searcher looks up podcasts for an interpretation.
type Searcher interface {
	Search(ctx context.Context, category domain.Category, query string, maxResults int) (*domain.SearchOutcome, error)
}

type Options struct {
	Searcher   Searcher
	MaxResults int
	Logger     zerolog.Logger
}

type RunOptions struct {
	Search     bool
	MaxResults int
}

type BatchOptions struct {
	RunOptions
	Concurrency int
}

type Pipeline struct {
	interpreter Interpreter
	searcher    Searcher
	maxResults  int
	logger      zerolog.Logger
}

func New(interpreter Interpreter, opts Options) *Pipeline {
	if opts.MaxResults <= 0 {
		opts.MaxResults = domain.DefaultMaxResults
	}
	return &Pipeline{
		interpreter: interpreter,
		searcher:    opts.Searcher,
		maxResults:  opts.MaxResults,
		logger:      opts.Logger.With().Str("component", "pipeline").Logger(),
	}
}

// CanSearch reports whether the pipeline was built with a searcher.
func (p *Pipeline) CanSearch() bool {
	return p.searcher != nil
}

// run carries the state of a single Run.
type run struct {
	ctx    context.Context
	result domain.PipelineResult
	logger zerolog.Logger
}

func (r *run) enter(state domain.RunState) {
	r.result.State = state
	r.result.Transitions = append(r.result.Transitions, state)
}

func (r *run) fail(err *domain.StageError) domain.PipelineResult {
	r.result.Error = err
	r.enter(domain.StateFailed)
	return r.result
}

// Run executes one query. It never returns an error: failures are
// recorded in the result, with the interpretation kept when only the
// search failed.
func (p *Pipeline) Run(ctx context.Context, raw string, opts RunOptions) domain.PipelineResult {
	runID := uuid.NewString()
	ctx, span := telemetry.StartSpan(ctx, "pipeline.run", telemetry.SpanAttributes{RunID: runID})
	defer span.End()

	r := &run{
		ctx:    ctx,
		result: domain.PipelineResult{RunID: runID, Input: raw},
		logger: p.logger.With().Str("run_id", runID).Logger(),
	}
	r.enter(domain.StateStart)

	res := p.execute(r, opts)

	if res.Error != nil {
		span.Fail(res.Error)
		r.logger.Warn().
			Str("stage", string(res.Error.Stage)).
			Str("kind", string(res.Error.Kind)).
			Bool("partial", res.Partial()).
			Msg("run failed")
	} else {
		r.logger.Debug().Msg("run finished")
	}
	metrics.RecordRun(res)
	return res
}

func (p *Pipeline) execute(r *run, opts RunOptions) domain.PipelineResult {
	r.enter(domain.StateSanitizing)
	var sanitized domain.SanitizedQuery
	err := p.stage(r, domain.StateSanitizing, func(context.Context) error {
		var err error
		sanitized, err = domain.SanitizeQuery(r.result.Input)
		return err
	})
	if err != nil {
		return r.fail(err)
	}

	r.enter(domain.StateInterpreting)
	var interpretation domain.Interpretation
	err = p.stage(r, domain.StateInterpreting, func(ctx context.Context) error {
		var err error
		interpretation, err = p.interpreter.Interpret(ctx, sanitized)
		return err
	})
	if err != nil {
		return r.fail(err)
	}

	r.enter(domain.StateNormalizing)
	normalized := interpretation.Normalized()
	r.result.Interpretation = &normalized
	telemetry.StateBreadcrumb(r.ctx, domain.StateNormalizing, "category "+string(normalized.Category))

	if !opts.Search {
		r.enter(domain.StateDone)
		return r.result
	}

	r.enter(domain.StateSearching)
	if p.searcher == nil {
		return r.fail(domain.NewStageError(domain.StageSearch, domain.KindConfiguration, "search requested but no search client is configured"))
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = p.maxResults
	}

	err = p.stage(r, domain.StateSearching, func(ctx context.Context) error {
		outcome, err := p.searcher.Search(ctx, normalized.Category, normalized.Query, maxResults)
		if err != nil {
			return err
		}
		r.result.Search = outcome
		return nil
	})
	if err != nil {
		return r.fail(err)
	}

	r.enter(domain.StateDone)
	return r.result
}

// stage runs fn inside a span, times it and converts its error into a
// StageError attributed to the state's stage.
func (p *Pipeline) stage(r *run, state domain.RunState, fn func(context.Context) error) *domain.StageError {
	ctx, span := telemetry.StartSpan(r.ctx, "pipeline."+string(state), telemetry.SpanAttributes{
		RunID: r.result.RunID,
		Stage: string(state),
	})
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	se := toStageError(state, err)
	metrics.RecordStage(state, elapsed, se)

	log := r.logger.With().Str("state", string(state)).Dur("elapsed", elapsed).Logger()
	if se == nil {
		log.Debug().Msg("stage finished")
		telemetry.StateBreadcrumb(ctx, state, "ok")
		return nil
	}

	span.Fail(se)
	log.Warn().Str("kind", string(se.Kind)).Int("status", se.Status).Msg("stage failed")
	if se.Kind == domain.KindTransport || se.Kind == domain.KindUpstream {
		telemetry.CaptureStageError(ctx, se)
	}
	return se
}

func toStageError(state domain.RunState, err error) *domain.StageError {
	if err == nil {
		return nil
	}
	if se, ok := domain.AsStageError(err); ok {
		return se
	}

	stage := domain.StageInterpret
	switch state {
	case domain.StateSanitizing:
		stage = domain.StageSanitize
	case domain.StateSearching:
		stage = domain.StageSearch
	}
	kind := domain.KindTransport
	if errors.Is(err, context.DeadlineExceeded) {
		kind = domain.KindTimeout
	}
	return domain.NewStageErrorWithCause(stage, kind, "", err)
}

// RunBatch runs every input independently with bounded concurrency and
// returns the results in input order.
func (p *Pipeline) RunBatch(ctx context.Context, inputs []string, opts BatchOptions) []domain.PipelineResult {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]domain.PipelineResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, input := range inputs {
		g.Go(func() error {
			results[i] = p.Run(gctx, input, opts.RunOptions)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
