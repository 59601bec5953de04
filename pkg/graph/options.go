package graph

import (
	"github.com/advisorhq/agentgraph/pkg/graph/checkpoint"
	"github.com/advisorhq/agentgraph/pkg/graph/observability"
)

// runConfig holds configuration for graph execution.
type runConfig struct {
	maxSteps               int
	checkpointStore        checkpoint.Store
	runID                  string
	sequence               int
	metrics                observability.MetricsRecorder
	spans                  observability.SpanManager
	tracingEnabled         bool
	checkpointFailureFatal bool
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		maxSteps: 50,
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxSteps sets the maximum number of node executions per run.
// Default: 50.
//
// This is a last-resort circuit breaker against infinite routing loops.
// Domain-level guards should be configured strictly tighter so they fire
// first with a better message.
func WithMaxSteps(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithCheckpointing enables checkpoint persistence for the run.
// State is saved to the store after every node transition, keyed by
// runID. The runID is required whenever a store is configured.
func WithCheckpointing(store checkpoint.Store, runID string) RunOption {
	return func(c *runConfig) {
		c.checkpointStore = store
		c.runID = runID
	}
}

// WithSequence sets the starting checkpoint sequence number.
// Used when continuing a run whose earlier checkpoints already exist.
func WithSequence(seq int) RunOption {
	return func(c *runConfig) {
		if seq > 0 {
			c.sequence = seq
		}
	}
}

// WithMetrics sets the metrics recorder for the run.
func WithMetrics(rec observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithTracing enables span creation via the given span manager.
func WithTracing(spans observability.SpanManager) RunOption {
	return func(c *runConfig) {
		if spans != nil {
			c.spans = spans
			c.tracingEnabled = true
		}
	}
}

// WithCheckpointFailureFatal makes checkpoint save failures abort the
// run. By default failures are logged and execution continues.
func WithCheckpointFailureFatal() RunOption {
	return func(c *runConfig) {
		c.checkpointFailureFatal = true
	}
}

// resumeConfig holds configuration for resuming from a checkpoint.
type resumeConfig[S any] struct {
	stateUpdate   func(S) S
	validateState func(S) error
	runOptions    []RunOption
}

// ResumeOption configures resume behavior.
type ResumeOption[S any] func(*resumeConfig[S])

// WithStateUpdate applies a transformation to the restored state before
// execution continues. Used to inject new input into a suspended thread.
func WithStateUpdate[S any](fn func(S) S) ResumeOption[S] {
	return func(c *resumeConfig[S]) {
		c.stateUpdate = fn
	}
}

// WithStateValidation validates the restored state before execution
// continues. A validation error aborts the resume.
func WithStateValidation[S any](fn func(S) error) ResumeOption[S] {
	return func(c *resumeConfig[S]) {
		c.validateState = fn
	}
}

// WithRunOptions forwards RunOptions to the resumed execution.
func WithRunOptions[S any](opts ...RunOption) ResumeOption[S] {
	return func(c *resumeConfig[S]) {
		c.runOptions = append(c.runOptions, opts...)
	}
}
