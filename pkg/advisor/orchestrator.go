package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/advisorhq/agentgraph/pkg/graph"
	"github.com/advisorhq/agentgraph/pkg/graph/checkpoint"
	"github.com/advisorhq/agentgraph/pkg/graph/observability"
	"github.com/advisorhq/agentgraph/pkg/model"
	"github.com/advisorhq/agentgraph/pkg/tool"
)

// Sentinel errors returned by the orchestrator for caller faults.
// Everything else surfaces inside the RunResult as a FAILED status.
var (
	// ErrMissingUserID means the caller omitted the authenticated
	// user identity. This is a bad request, never a guardrail or
	// interrupt condition.
	ErrMissingUserID = errors.New("user id is required")

	// ErrForbidden means the thread is owned by a different user.
	// Ownership mismatch is reported explicitly rather than disguised
	// as not-found.
	ErrForbidden = errors.New("thread belongs to a different user")

	// ErrThreadNotFound means no checkpoint exists for the thread.
	ErrThreadNotFound = errors.New("thread not found")

	// ErrThreadNotSuspended means a resume was attempted on a thread
	// with no pending interrupt.
	ErrThreadNotSuspended = errors.New("thread is not suspended")
)

// Status classifies the outcome of a turn.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusSuspended Status = "SUSPENDED"
	StatusFailed    Status = "FAILED"
)

// RunInput is the caller's payload for one turn.
type RunInput struct {
	// Message is the user's utterance for this turn.
	Message string

	// PortfolioContext is an opaque payload passed through to state
	// untouched.
	PortfolioContext json.RawMessage
}

// RunResult is the shape every turn resolves to.
type RunResult struct {
	// ThreadID is the scoped thread id, usable for resume and
	// follow-up turns.
	ThreadID string

	// Status is COMPLETED, SUSPENDED, or FAILED.
	Status Status

	// State is the final execution state of the turn.
	State State

	// InterruptReason is set when Status is SUSPENDED.
	InterruptReason string

	// Err is set when Status is FAILED. Guardrail violations carry a
	// user-facing message here.
	Err error
}

// Orchestrator is the sole external-facing API: it turns a
// (userID, message, optional threadID) into a result, scoping the
// thread to its owner, running the graph, and classifying every
// failure before it reaches the caller.
//
// The orchestrator assumes at most one concurrent turn per thread;
// serializing per-thread requests is the caller's responsibility.
type Orchestrator struct {
	cfg      Config
	compiled *graph.CompiledGraph[State]
	store    checkpoint.Store
	client   model.Client
	tools    tool.Source
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator, *Deps)

// WithModelClient sets the completion client used by reasoning.
func WithModelClient(c model.Client) OrchestratorOption {
	return func(o *Orchestrator, _ *Deps) { o.client = c }
}

// WithToolSource sets the tool registry bound to reasoning and tool
// execution.
func WithToolSource(src tool.Source) OrchestratorOption {
	return func(o *Orchestrator, _ *Deps) { o.tools = src }
}

// WithCheckpointStore sets the store threads are persisted in.
// Defaults to an in-memory store.
func WithCheckpointStore(store checkpoint.Store) OrchestratorOption {
	return func(o *Orchestrator, _ *Deps) { o.store = store }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator, _ *Deps) { o.logger = logger }
}

// WithPerformance sets the performance attribution collaborator.
func WithPerformance(svc PerformanceService) OrchestratorOption {
	return func(_ *Orchestrator, d *Deps) { d.Performance = svc }
}

// WithTokenCounter overrides the reasoning token counter.
func WithTokenCounter(c model.TokenCounter) OrchestratorOption {
	return func(_ *Orchestrator, d *Deps) { d.TokenCounter = c }
}

// NewOrchestrator builds the graph for cfg and returns an
// orchestrator ready to serve turns.
func NewOrchestrator(cfg Config, opts ...OrchestratorOption) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg:     cfg,
		store:   checkpoint.NewMemoryStore(),
		logger:  slog.Default(),
		metrics: observability.NewMetricsRecorder(),
	}
	var deps Deps
	for _, opt := range opts {
		opt(o, &deps)
	}
	if deps.Metrics == nil {
		deps.Metrics = o.metrics
	}

	compiled, err := BuildGraph(cfg, deps)
	if err != nil {
		return nil, err
	}
	o.compiled = compiled
	return o, nil
}

// Run executes one turn. A fresh thread id is minted when threadID is
// empty; a bare id is scoped to the caller; an already-scoped id must
// belong to the caller. An existing thread's transcript and iteration
// counter carry over.
func (o *Orchestrator) Run(ctx context.Context, userID string, in RunInput, threadID string) (*RunResult, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if threadID == "" {
		threadID = uuid.NewString()
	}
	scoped, err := EnsureScoped(userID, threadID)
	if err != nil {
		return nil, err
	}

	state := State{
		UserID:           userID,
		ThreadID:         scoped,
		MaxIterations:    o.cfg.MaxIterations,
		PortfolioContext: in.PortfolioContext,
	}
	prior, _, err := graph.LoadState[State](o.store, scoped)
	switch {
	case err == nil:
		state.Messages = prior.Messages
		state.Errors = prior.Errors
		state.Iteration = prior.Iteration
		state.PerformanceAnalysis = prior.PerformanceAnalysis
		if len(state.PortfolioContext) == 0 {
			state.PortfolioContext = prior.PortfolioContext
		}
	case errors.Is(err, graph.ErrNoCheckpoints), errors.Is(err, checkpoint.ErrNotFound):
		// First turn for this thread.
	default:
		return nil, fmt.Errorf("load thread %s: %w", scoped, err)
	}
	state = state.Append(Message{Role: model.RoleUser, Content: in.Message})

	elapsed := observability.TimedOperation()
	res, err := o.compiled.Run(o.executionContext(ctx, userID), state,
		graph.WithCheckpointing(o.store, scoped),
		graph.WithMaxSteps(o.cfg.MaxSteps),
		graph.WithMetrics(o.metrics))
	result := o.shapeResult(scoped, res, err)
	o.logger.Info("turn complete",
		slog.String("thread_id", scoped),
		slog.String("status", string(result.Status)),
		slog.Float64("duration_ms", elapsed()))
	return result, nil
}

// Resume continues a suspended thread with the user's new input. The
// input is injected as the next message before execution restarts
// from the checkpoint.
func (o *Orchestrator) Resume(ctx context.Context, userID, threadID, userInput string) (*RunResult, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	scoped, err := EnsureScoped(userID, threadID)
	if err != nil {
		return nil, err
	}

	_, cp, err := graph.LoadState[State](o.store, scoped)
	if err != nil {
		if errors.Is(err, graph.ErrNoCheckpoints) || errors.Is(err, checkpoint.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("load thread %s: %w", scoped, err)
	}
	if !cp.Suspended() {
		return nil, ErrThreadNotSuspended
	}

	res, err := o.compiled.Resume(o.executionContext(ctx, userID), o.store, scoped,
		graph.WithStateUpdate(func(s State) State {
			return s.Append(Message{Role: model.RoleUser, Content: userInput})
		}),
		graph.WithRunOptions[State](
			graph.WithMaxSteps(o.cfg.MaxSteps),
			graph.WithMetrics(o.metrics)))
	if err != nil && errors.Is(err, graph.ErrNotSuspended) {
		return nil, ErrThreadNotSuspended
	}
	return o.shapeResult(scoped, res, err), nil
}

// GetState returns the last persisted state for a thread the caller
// owns.
func (o *Orchestrator) GetState(ctx context.Context, userID, threadID string) (*State, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	scoped, err := EnsureScoped(userID, threadID)
	if err != nil {
		return nil, err
	}
	st, _, err := graph.LoadState[State](o.store, scoped)
	if err != nil {
		if errors.Is(err, graph.ErrNoCheckpoints) || errors.Is(err, checkpoint.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("load thread %s: %w", scoped, err)
	}
	return &st, nil
}

func (o *Orchestrator) executionContext(ctx context.Context, userID string) graph.Context {
	ctx = WithUserID(ctx, userID)
	opts := []graph.ContextOption{
		graph.WithLogger(o.logger),
		graph.WithCheckpointer(o.store),
	}
	if o.client != nil {
		opts = append(opts, graph.WithModel(o.client))
	}
	if o.tools != nil {
		opts = append(opts, graph.WithTools(o.tools))
	}
	return graph.NewContext(ctx, opts...)
}

// shapeResult is the single place a turn's outcome is classified.
// Node-internal failures never reach the caller unshaped.
func (o *Orchestrator) shapeResult(threadID string, res graph.Result[State], err error) *RunResult {
	out := &RunResult{
		ThreadID: threadID,
		State:    res.State,
	}
	if err != nil {
		out.Status = StatusFailed
		var guardrail *GuardrailError
		var nodeErr *graph.NodeError
		switch {
		case errors.As(err, &guardrail):
			out.Err = guardrail
		case errors.As(err, &nodeErr):
			out.Err = fmt.Errorf("turn failed in %s: %w", nodeErr.NodeID, nodeErr)
		default:
			out.Err = err
		}
		o.logger.Error("turn failed", "thread_id", threadID, "error", out.Err)
		return out
	}
	if res.Suspended() {
		out.Status = StatusSuspended
		out.InterruptReason = res.Interrupt.Reason
		return out
	}
	out.Status = StatusCompleted
	return out
}
