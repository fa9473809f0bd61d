// Package telemetry traces pipeline runs in Sentry. Every helper is safe
// to call when Sentry was never initialized.
package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/cloo-solutions/podquery/internal/domain"
)

const serverName = "podquery"

type Config struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
	Logger           zerolog.Logger
}

// Init returns a flush func to defer. Without a DSN, or when the SDK
// refuses the options, tracing stays off and flush does nothing.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate <= 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:           cfg.DSN,
		Environment:   cfg.Environment,
		Release:       cfg.Release,
		ServerName:    serverName,
		Debug:         cfg.Debug,
		EnableTracing: true,
		TracesSampler: func(ctx sentry.SamplingContext) float64 {
			// children follow the sampling decision of their root
			if ctx.Parent != nil {
				if ctx.Parent.Sampled.Bool() {
					return 1.0
				}
				return 0.0
			}
			return cfg.TracesSampleRate
		},
	})
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("sentry: init failed, tracing disabled")
		return func() {}, nil
	}

	cfg.Logger.Info().
		Str("environment", cfg.Environment).
		Float64("sample_rate", cfg.TracesSampleRate).
		Msg("sentry: tracing enabled")
	return func() { sentry.Flush(5 * time.Second) }, nil
}

type SpanAttributes struct {
	RunID string
	Stage string
}

// Span never holds a nil sentry span once returned from StartSpan, but the
// zero value is usable too.
type Span struct {
	inner *sentry.Span
}

func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

func (s *Span) SetTag(name, value string) {
	if s.inner != nil && value != "" {
		s.inner.SetTag(name, value)
	}
}

// Fail records a stage failure on the span: its status follows the error
// kind, and the stage and kind become tags.
func (s *Span) Fail(se *domain.StageError) {
	if s.inner == nil || se == nil {
		return
	}
	s.inner.Status = KindStatus(se.Kind)
	s.inner.SetTag("error.stage", string(se.Stage))
	s.inner.SetTag("error.kind", string(se.Kind))
	if se.Status != 0 {
		s.inner.SetData("upstream.status_code", se.Status)
	}
}

// KindStatus maps an error kind to the closest span status.
func KindStatus(kind domain.ErrorKind) sentry.SpanStatus {
	switch kind {
	case domain.KindInputRejected:
		return sentry.SpanStatusInvalidArgument
	case domain.KindTimeout:
		return sentry.SpanStatusDeadlineExceeded
	case domain.KindTransport, domain.KindUpstream:
		return sentry.SpanStatusUnavailable
	case domain.KindConfiguration:
		return sentry.SpanStatusFailedPrecondition
	case domain.KindNoContent, domain.KindMalformedReply, domain.KindMissingQuery, domain.KindUnparseable:
		return sentry.SpanStatusDataLoss
	default:
		return sentry.SpanStatusInternalError
	}
}

// StartSpan starts a child of the span in ctx, or a new transaction when
// there is none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	s := &Span{inner: span}
	s.SetTag("run_id", attrs.RunID)
	s.SetTag("stage", attrs.Stage)
	return span.Context(), s
}

// CaptureStageError reports se as an event grouped by stage and kind, so
// all upstream 401s from one service land in a single issue.
func CaptureStageError(ctx context.Context, se *domain.StageError) {
	if se == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", string(se.Stage))
		scope.SetTag("kind", string(se.Kind))
		fingerprint := []string{"stage-error", string(se.Stage), string(se.Kind)}
		if se.Status != 0 {
			scope.SetTag("upstream_status", strconv.Itoa(se.Status))
			fingerprint = append(fingerprint, strconv.Itoa(se.Status))
		}
		scope.SetFingerprint(fingerprint)
		hub.CaptureException(se)
	})
}

// StateBreadcrumb notes a state transition of the run in ctx.
func StateBreadcrumb(ctx context.Context, state domain.RunState, message string) {
	crumb := &sentry.Breadcrumb{
		Type:      "info",
		Category:  "pipeline." + string(state),
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.AddBreadcrumb(crumb, nil)
		return
	}
	sentry.AddBreadcrumb(crumb)
}
