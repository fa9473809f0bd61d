package domain

import "encoding/json"

// RunState is a state of the pipeline state machine
type RunState string

const (
	StateStart        RunState = "start"
	StateSanitizing   RunState = "sanitizing"
	StateInterpreting RunState = "interpreting"
	StateNormalizing  RunState = "normalizing"
	StateSearching    RunState = "searching"
	StateDone         RunState = "done"
	StateFailed       RunState = "failed"
)

// PipelineResult is the outcome of one pipeline run. Error is set iff the
// run did not complete the stages it was asked to perform; Interpretation
// survives a failed search.
type PipelineResult struct {
	RunID          string          `json:"run_id"`
	Input          string          `json:"input"`
	State          RunState        `json:"state"`
	Transitions    []RunState      `json:"transitions"`
	Interpretation *Interpretation `json:"interpretation,omitempty"`
	Search         *SearchOutcome  `json:"search,omitempty"`
	Error          *StageError     `json:"-"`
}

// Succeeded reports whether every requested stage completed
func (r PipelineResult) Succeeded() bool {
	return r.Error == nil
}

// Partial reports whether interpretation succeeded but a later stage failed
func (r PipelineResult) Partial() bool {
	return r.Error != nil && r.Interpretation != nil
}

// ErrorKind returns the failure kind, or "" on success
func (r PipelineResult) ErrorKind() ErrorKind {
	if r.Error == nil {
		return ""
	}
	return r.Error.Kind
}

// ErrorView is the serialized form of a StageError
type ErrorView struct {
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Reason  string    `json:"reason"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message,omitempty"`
}

// View returns the serialized form of e
func (e *StageError) View() *ErrorView {
	if e == nil {
		return nil
	}
	return &ErrorView{
		Stage:   e.Stage,
		Kind:    e.Kind,
		Reason:  e.Kind.Reason(),
		Status:  e.Status,
		Message: e.Message,
	}
}

// MarshalJSON includes the error view alongside the result fields
func (r PipelineResult) MarshalJSON() ([]byte, error) {
	type plain PipelineResult
	return json.Marshal(struct {
		plain
		Error *ErrorView `json:"error,omitempty"`
	}{
		plain: plain(r),
		Error: r.Error.View(),
	})
}
