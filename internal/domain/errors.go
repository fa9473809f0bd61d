package domain

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline step an error originated from
type Stage string

const (
	StageSanitize  Stage = "sanitize"
	StageInterpret Stage = "interpret"
	StageSearch    Stage = "search"
	StageConfig    Stage = "config"
)

// ErrorKind is a machine-stable failure reason
type ErrorKind string

const (
	KindInputRejected  ErrorKind = "invalid_input"
	KindTimeout        ErrorKind = "timeout"
	KindTransport      ErrorKind = "transport"
	KindNoContent      ErrorKind = "no_content"
	KindMalformedReply ErrorKind = "malformed_reply"
	KindMissingQuery   ErrorKind = "missing_query"
	KindUnparseable    ErrorKind = "unparseable"
	KindUpstream       ErrorKind = "upstream"
	KindConfiguration  ErrorKind = "configuration"
)

var kindReasons = map[ErrorKind]string{
	KindInputRejected:  "invalid input",
	KindTimeout:        "timeout",
	KindTransport:      "transport error",
	KindNoContent:      "no content",
	KindMalformedReply: "malformed reply",
	KindMissingQuery:   "missing query",
	KindUnparseable:    "response not parseable",
	KindUpstream:       "upstream error",
	KindConfiguration:  "configuration error",
}

// Reason returns the human-readable form of the kind
func (k ErrorKind) Reason() string {
	if r, ok := kindReasons[k]; ok {
		return r
	}
	return string(k)
}

// StageError is the failure value carried through the pipeline.
// Status is set for upstream HTTP failures; Message holds the upstream
// description or the internal diagnostic reason.
type StageError struct {
	Stage   Stage
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

// Error implements the error interface
func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Stage, e.Kind.Reason())
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is matches sentinel StageErrors by stage and kind. A sentinel with an
// empty stage matches the kind at any stage.
func (e *StageError) Is(target error) bool {
	t, ok := target.(*StageError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Stage == "" || t.Stage == e.Stage
}

// NewStageError creates a StageError without a cause
func NewStageError(stage Stage, kind ErrorKind, message string) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: message}
}

// NewStageErrorWithCause creates a StageError wrapping err
func NewStageErrorWithCause(stage Stage, kind ErrorKind, message string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: message, Err: err}
}

// NewUpstreamError creates a StageError for a non-2xx upstream reply
func NewUpstreamError(stage Stage, kind ErrorKind, status int, message string) *StageError {
	return &StageError{Stage: stage, Kind: kind, Status: status, Message: message}
}

// AsStageError extracts a *StageError from err
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Input errors
var (
	ErrInputRejected = &StageError{Stage: StageSanitize, Kind: KindInputRejected}
)

// Interpretation errors
var (
	ErrInterpretTimeout        = &StageError{Stage: StageInterpret, Kind: KindTimeout}
	ErrInterpretTransport      = &StageError{Stage: StageInterpret, Kind: KindTransport}
	ErrInterpretNoContent      = &StageError{Stage: StageInterpret, Kind: KindNoContent}
	ErrInterpretMalformedReply = &StageError{Stage: StageInterpret, Kind: KindMalformedReply}
	ErrInterpretMissingQuery   = &StageError{Stage: StageInterpret, Kind: KindMissingQuery}
)

// Search errors
var (
	ErrSearchTimeout     = &StageError{Stage: StageSearch, Kind: KindTimeout}
	ErrSearchTransport   = &StageError{Stage: StageSearch, Kind: KindTransport}
	ErrSearchUnparseable = &StageError{Stage: StageSearch, Kind: KindUnparseable}
	ErrSearchUpstream    = &StageError{Stage: StageSearch, Kind: KindUpstream}
)

// Configuration errors
var (
	ErrConfiguration = &StageError{Stage: StageConfig, Kind: KindConfiguration}
)
