package graph

import "time"

// Interrupt is a cooperative suspension of the current run pending
// external (typically human) input. It is a normal control path, not an
// error: the executor persists the state captured before the raising
// node's effects would commit, records the interrupt in the checkpoint,
// and returns a suspended result to the caller.
type Interrupt struct {
	// Reason is a human-readable description of why the run suspended
	// and what input is expected.
	Reason string `json:"reason"`

	// NodeID is the node that raised the interrupt.
	NodeID NodeID `json:"node_id"`

	// RaisedAt records when the interrupt was raised.
	RaisedAt time.Time `json:"raised_at"`
}

// Outcome is the tagged result of a node execution.
// Exactly one of the three variants applies:
//
//   - Continue: the node finished and execution proceeds with the
//     returned state.
//   - Suspend: the node requests suspension; the run halts with a
//     pending interrupt and can be resumed later.
//   - Fail: the node failed fatally for this run.
//
// Construct outcomes with the Continue, Suspend, and Fail functions.
type Outcome[S any] struct {
	state     S
	interrupt *Interrupt
	err       error
}

// Continue returns an outcome that proceeds with the given state.
func Continue[S any](state S) Outcome[S] {
	return Outcome[S]{state: state}
}

// Suspend returns an outcome that halts the run pending external input.
// The state carried here is what the executor persists; by convention
// nodes pass the state they received, so resuming re-executes the node.
func Suspend[S any](state S, reason string) Outcome[S] {
	return Outcome[S]{state: state, interrupt: &Interrupt{Reason: reason, RaisedAt: time.Now().UTC()}}
}

// Fail returns an outcome that aborts the run with the given error.
// The state is preserved for inspection by the caller.
func Fail[S any](state S, err error) Outcome[S] {
	return Outcome[S]{state: state, err: err}
}

// State returns the state carried by the outcome.
func (o Outcome[S]) State() S { return o.state }

// Interrupt returns the pending interrupt, or nil for Continue/Fail.
func (o Outcome[S]) Interrupt() *Interrupt { return o.interrupt }

// Err returns the failure, or nil for Continue/Suspend.
func (o Outcome[S]) Err() error { return o.err }
