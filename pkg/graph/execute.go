package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/advisorhq/agentgraph/pkg/graph/checkpoint"
	"github.com/advisorhq/agentgraph/pkg/graph/observability"
)

// Result is the outcome of a Run or Resume call.
// When Interrupt is non-nil the run suspended pending external input and
// State holds the checkpointed state; otherwise the run reached End and
// State holds the final state.
type Result[S any] struct {
	// State is the final (or suspended) state.
	State S

	// Interrupt is non-nil when the run suspended.
	Interrupt *Interrupt

	// Steps is the number of nodes that executed.
	Steps int
}

// Suspended reports whether the run halted on a pending interrupt.
func (r Result[S]) Suspended() bool {
	return r.Interrupt != nil
}

// Run executes the graph with the given initial state.
//
// On success, returns the state after the last node executed before End.
// On suspension, returns the state captured before the suspending node's
// effects would commit, plus the pending interrupt.
// On error, returns the state at the point of failure.
//
// Execution flow:
//  1. Start at the entry point node
//  2. Check for cancellation
//  3. Execute the current node
//  4. On Continue: determine the next node, checkpoint, repeat
//  5. On Suspend: checkpoint with the pending interrupt and return
//  6. Repeat until End is reached or an error occurs
func (cg *CompiledGraph[S]) Run(ctx Context, state S, opts ...RunOption) (result Result[S], runErr error) {
	if ctx == nil {
		return Result[S]{State: state}, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.checkpointStore != nil && cfg.runID == "" {
		return Result[S]{State: state}, ErrRunIDRequired
	}

	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}

	startTime := time.Now()
	logger := ctx.Logger()
	observability.LogRunStart(logger, runID)

	var execCtx context.Context = ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, "agentgraph", runID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	result, runErr = cg.runFrom(execCtx, ctx, state, cg.entryPoint, &cfg)

	duration := time.Since(startTime)
	durationMs := float64(duration.Milliseconds())
	cfg.metrics.RecordGraphRun(ctx, runErr == nil, duration)

	switch {
	case runErr != nil:
		lastNode := ""
		if nodeErr, ok := runErr.(*NodeError); ok {
			lastNode = string(nodeErr.NodeID)
		} else if maxErr, ok := runErr.(*MaxStepsError); ok {
			lastNode = string(maxErr.LastNodeID)
		} else if cancelErr, ok := runErr.(*CancellationError); ok {
			lastNode = string(cancelErr.NodeID)
		}
		observability.LogRunError(logger, runID, runErr, durationMs, lastNode)
	case result.Interrupt != nil:
		cfg.metrics.RecordInterrupt(ctx, string(result.Interrupt.NodeID))
		observability.LogRunSuspended(logger, runID, string(result.Interrupt.NodeID), result.Interrupt.Reason)
	default:
		observability.LogRunComplete(logger, runID, durationMs, result.Steps)
	}

	return result, runErr
}

// runFrom executes the graph starting from a specific node.
// tracingCtx carries span context; gCtx is the graph Context.
func (cg *CompiledGraph[S]) runFrom(tracingCtx context.Context, gCtx Context, state S, startNode NodeID, cfg *runConfig) (Result[S], error) {
	current := startNode
	prevNode := NodeID("")
	steps := 0

	for current != End {
		if steps >= cfg.maxSteps {
			return Result[S]{State: state, Steps: steps}, &MaxStepsError{
				Max:        cfg.maxSteps,
				LastNodeID: current,
				State:      state,
			}
		}

		// Check for cancellation before executing the node.
		select {
		case <-gCtx.Done():
			return Result[S]{State: state, Steps: steps}, &CancellationError{
				NodeID: current,
				State:  state,
				Cause:  gCtx.Err(),
			}
		default:
		}

		logger := gCtx.Logger()
		observability.LogNodeStart(logger, string(current))

		nodeTracingCtx := tracingCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeTracingCtx, nodeSpan = cfg.spans.StartNodeSpan(tracingCtx, string(current))
		}

		nodeStart := time.Now()
		preState := state

		outcome, nodeErr := cg.executeNode(gCtx, current, state)

		nodeDuration := time.Since(nodeStart)
		cfg.metrics.RecordNodeExecution(nodeTracingCtx, string(current), nodeDuration, nodeErr)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}

		if nodeErr != nil {
			observability.LogNodeError(logger, string(current), nodeErr)
			return Result[S]{State: outcome.State(), Steps: steps}, nodeErr
		}

		steps++

		// Suspension: persist the state as of just before this node's
		// effects would commit, marked with the pending interrupt, so a
		// later resume re-enters at this node.
		if intr := outcome.Interrupt(); intr != nil {
			intr.NodeID = current
			if cfg.checkpointStore != nil {
				if err := cg.saveCheckpoint(gCtx, cfg, current, prevNode, preState, []NodeID{current}, intr); err != nil {
					return Result[S]{State: preState, Steps: steps}, err
				}
			}
			observability.LogNodeComplete(logger, string(current), float64(nodeDuration.Milliseconds()))
			return Result[S]{State: preState, Interrupt: intr, Steps: steps}, nil
		}

		state = outcome.State()
		observability.LogNodeComplete(logger, string(current), float64(nodeDuration.Milliseconds()))

		next, err := cg.nextNode(gCtx, state, current)
		if err != nil {
			return Result[S]{State: state, Steps: steps}, err
		}

		// Checkpoint after every successful node transition.
		if cfg.checkpointStore != nil {
			var pending []NodeID
			if next != End {
				pending = []NodeID{next}
			}
			if err := cg.saveCheckpoint(gCtx, cfg, current, prevNode, state, pending, nil); err != nil {
				return Result[S]{State: state, Steps: steps}, err
			}
		}

		prevNode = current
		current = next
	}

	return Result[S]{State: state, Steps: steps}, nil
}

// saveCheckpoint persists the current state after a node transition.
func (cg *CompiledGraph[S]) saveCheckpoint(ctx Context, cfg *runConfig, nodeID, prevNodeID NodeID, state S, nextNodes []NodeID, intr *Interrupt) error {
	logger := ctx.Logger()

	stateBytes, err := json.Marshal(state)
	if err != nil {
		if cfg.checkpointFailureFatal {
			return &CheckpointError{NodeID: nodeID, Op: "serialize", Err: err}
		}
		observability.LogCheckpointError(logger, string(nodeID), "serialize", err)
		return nil
	}

	pending := make([]string, len(nextNodes))
	for i, n := range nextNodes {
		pending[i] = string(n)
	}

	cfg.sequence++
	cp := checkpoint.New(cfg.runID, string(nodeID), cfg.sequence, stateBytes, pending).
		WithPrevNode(string(prevNodeID))
	if intr != nil {
		cp = cp.WithInterrupt(intr.Reason, string(intr.NodeID), intr.RaisedAt)
	}

	data, err := cp.Marshal()
	if err != nil {
		if cfg.checkpointFailureFatal {
			return &CheckpointError{NodeID: nodeID, Op: "marshal", Err: err}
		}
		observability.LogCheckpointError(logger, string(nodeID), "marshal", err)
		return nil
	}

	if err := cfg.checkpointStore.Save(cfg.runID, string(nodeID), data); err != nil {
		if cfg.checkpointFailureFatal {
			return &CheckpointError{NodeID: nodeID, Op: "save", Err: err}
		}
		observability.LogCheckpointError(logger, string(nodeID), "save", err)
		return nil
	}

	sizeBytes := len(data)
	observability.LogCheckpoint(logger, string(nodeID), sizeBytes)
	cfg.metrics.RecordCheckpoint(ctx, string(nodeID), int64(sizeBytes))

	return nil
}

// executeNode executes a single node with panic recovery.
func (cg *CompiledGraph[S]) executeNode(ctx Context, nodeID NodeID, state S) (result Outcome[S], err error) {
	fn, exists := cg.getNode(nodeID)
	if !exists {
		// Shouldn't happen if compilation was successful.
		return Continue(state), &NodeError{
			NodeID: nodeID,
			Op:     "lookup",
			Err:    fmt.Errorf("node not found: %s", nodeID),
		}
	}

	// Create node-specific context with enriched logger.
	nodeCtx := ctx
	if ec, ok := ctx.(*executionContext); ok {
		nodeCtx = ec.withNodeID(nodeID)
	}

	defer func() {
		if r := recover(); r != nil {
			result = Continue(state)
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	result = fn(nodeCtx, state)
	if failErr := result.Err(); failErr != nil {
		return result, &NodeError{
			NodeID: nodeID,
			Op:     "execute",
			Err:    failErr,
		}
	}

	return result, nil
}

// nextNode determines the next node to execute.
// Checks conditional edges first, then simple edges.
func (cg *CompiledGraph[S]) nextNode(ctx Context, state S, current NodeID) (NodeID, error) {
	if router, exists := cg.getRouter(current); exists {
		routerCtx := ctx
		if ec, ok := ctx.(*executionContext); ok {
			routerCtx = ec.withNodeID(current)
		}

		next := router(routerCtx, state)

		if next == "" {
			return "", &RouterError{
				FromNode: current,
				Returned: next,
				Err:      ErrInvalidRouterResult,
			}
		}

		if next != End {
			if _, exists := cg.getNode(next); !exists {
				return "", &RouterError{
					FromNode: current,
					Returned: next,
					Err:      ErrRouterTargetNotFound,
				}
			}
		}

		return next, nil
	}

	edges := cg.getEdges(current)
	if len(edges) == 0 {
		// Shouldn't happen if compilation was successful.
		return "", &NodeError{
			NodeID: current,
			Op:     "routing",
			Err:    fmt.Errorf("no outgoing edge from node %s", current),
		}
	}

	// Simple edges are single-successor; take the first.
	return edges[0], nil
}
