package graph

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/advisorhq/agentgraph/pkg/graph/checkpoint"
)

// Resume continues execution of a suspended thread from its latest
// checkpoint. The checkpoint must carry a pending interrupt or pending
// nodes; resuming a completed thread returns ErrNotSuspended.
//
// Typical use injects the human's answer before continuing:
//
//	result, err := compiled.Resume(ctx, store, threadID,
//	    graph.WithStateUpdate(func(s State) State {
//	        return s.WithHumanMessage(input)
//	    }))
func (cg *CompiledGraph[S]) Resume(ctx Context, store checkpoint.Store, threadID string, opts ...ResumeOption[S]) (Result[S], error) {
	var zero Result[S]

	if ctx == nil {
		return zero, ErrNilContext
	}

	cfg := resumeConfig[S]{}
	for _, opt := range opts {
		opt(&cfg)
	}

	cp, err := checkpoint.Latest(store, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s", ErrNoCheckpoints, threadID)
		}
		return zero, fmt.Errorf("load checkpoint: %w", err)
	}

	if cp.Version != checkpoint.Version {
		return zero, fmt.Errorf("%w: got %d, expected %d",
			ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}

	if !cp.Suspended() {
		return zero, fmt.Errorf("%w: %s", ErrNotSuspended, threadID)
	}

	var state S
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}

	if cfg.stateUpdate != nil {
		state = cfg.stateUpdate(state)
	}

	if cfg.validateState != nil {
		if err := cfg.validateState(state); err != nil {
			return Result[S]{State: state}, fmt.Errorf("state validation failed: %w", err)
		}
	}

	var startNode NodeID
	if len(cp.NextNodes) > 0 {
		startNode = NodeID(cp.NextNodes[0])
	} else {
		startNode = NodeID(cp.Interrupt.NodeID)
	}
	if startNode != End && !cg.HasNode(startNode) {
		return zero, fmt.Errorf("%w: %s", ErrInvalidResumeNode, startNode)
	}

	runCfg := defaultRunConfig()
	for _, opt := range cfg.runOptions {
		opt(&runCfg)
	}
	runCfg.checkpointStore = store
	runCfg.runID = threadID
	if runCfg.sequence < cp.Sequence {
		runCfg.sequence = cp.Sequence
	}

	return cg.runFrom(ctx, ctx, state, startNode, &runCfg)
}

// LoadState loads the latest checkpointed state for a thread without
// executing anything. The returned checkpoint carries the pending
// interrupt and pending nodes, if any.
func LoadState[S any](store checkpoint.Store, threadID string) (S, *checkpoint.Checkpoint, error) {
	var zero S

	cp, err := checkpoint.Latest(store, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return zero, nil, fmt.Errorf("%w: %s", ErrNoCheckpoints, threadID)
		}
		return zero, nil, fmt.Errorf("load checkpoint: %w", err)
	}

	if cp.Version != checkpoint.Version {
		return zero, nil, fmt.Errorf("%w: got %d, expected %d",
			ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}

	var state S
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return zero, nil, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}

	return state, cp, nil
}
