package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorhq/agentgraph/pkg/graph/checkpoint"
)

func testCtx(t *testing.T) Context {
	t.Helper()
	return NewContext(context.Background())
}

func linearGraph(t *testing.T, names ...string) *CompiledGraph[Counter] {
	t.Helper()
	g := New[Counter]()
	for _, name := range names {
		g.AddNode(NodeID(name), step(name))
	}
	for i := 0; i < len(names)-1; i++ {
		g.AddEdge(NodeID(names[i]), NodeID(names[i+1]))
	}
	g.AddEdge(NodeID(names[len(names)-1]), End)
	g.SetEntry(NodeID(names[0]))

	compiled, err := g.Compile()
	require.NoError(t, err)
	return compiled
}

func TestRun_Linear(t *testing.T) {
	compiled := linearGraph(t, "a", "b", "c")

	result, err := compiled.Run(testCtx(t), Counter{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.State.Value)
	assert.Equal(t, []string{"a", "b", "c"}, result.State.Trail)
	assert.Equal(t, 3, result.Steps)
	assert.False(t, result.Suspended())
}

func TestRun_NilContext(t *testing.T) {
	compiled := linearGraph(t, "a")

	_, err := compiled.Run(nil, Counter{})
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestRun_Conditional(t *testing.T) {
	router := func(ctx Context, state Counter) NodeID {
		if state.Value < 3 {
			return "loop"
		}
		return End
	}

	compiled, err := New[Counter]().
		AddNode("loop", step("loop")).
		AddConditionalEdge("loop", router).
		SetEntry("loop").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(t), Counter{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.State.Value)
}

func TestRun_MaxSteps(t *testing.T) {
	router := func(ctx Context, state Counter) NodeID { return "loop" }

	compiled, err := New[Counter]().
		AddNode("loop", step("loop")).
		AddConditionalEdge("loop", router).
		SetEntry("loop").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(t), Counter{}, WithMaxSteps(5))
	var maxErr *MaxStepsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 5, maxErr.Max)
	assert.ErrorIs(t, err, ErrMaxSteps)
}

func TestRun_NodeFailure(t *testing.T) {
	boom := errors.New("boom")
	failing := func(ctx Context, state Counter) Outcome[Counter] {
		return Fail(state, boom)
	}

	compiled, err := New[Counter]().
		AddNode("a", step("a")).
		AddNode("fail", failing).
		AddEdge("a", "fail").
		AddEdge("fail", End).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(t), Counter{})
	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, NodeID("fail"), nodeErr.NodeID)
	assert.ErrorIs(t, err, boom)
}

func TestRun_PanicRecovery(t *testing.T) {
	panicking := func(ctx Context, state Counter) Outcome[Counter] {
		panic("kaboom")
	}

	compiled, err := New[Counter]().
		AddNode("a", panicking).
		AddEdge("a", End).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(t), Counter{})
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, NodeID("a"), panicErr.NodeID)
	assert.Equal(t, "kaboom", panicErr.Value)
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	compiled := linearGraph(t, "a")
	_, err := compiled.Run(NewContext(ctx), Counter{})
	var cancelErr *CancellationError
	require.ErrorAs(t, err, &cancelErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Suspend(t *testing.T) {
	gate := func(ctx Context, state Counter) Outcome[Counter] {
		state.Value += 100
		return Suspend(state, "needs approval")
	}

	compiled, err := New[Counter]().
		AddNode("a", step("a")).
		AddNode("gate", gate).
		AddEdge("a", "gate").
		AddEdge("gate", End).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(t), Counter{})
	require.NoError(t, err)
	require.True(t, result.Suspended())
	assert.Equal(t, "needs approval", result.Interrupt.Reason)
	assert.Equal(t, NodeID("gate"), result.Interrupt.NodeID)
	// The suspended state is the one before the gate's effects commit.
	assert.Equal(t, 1, result.State.Value)
}

func TestRun_CheckpointRequiresRunID(t *testing.T) {
	compiled := linearGraph(t, "a")
	store := checkpoint.NewMemoryStore()

	_, err := compiled.Run(testCtx(t), Counter{}, WithCheckpointing(store, ""))
	assert.ErrorIs(t, err, ErrRunIDRequired)
}

func TestRun_CheckpointPerTransition(t *testing.T) {
	compiled := linearGraph(t, "a", "b", "c")
	store := checkpoint.NewMemoryStore()

	_, err := compiled.Run(testCtx(t), Counter{}, WithCheckpointing(store, "thread-1"))
	require.NoError(t, err)

	infos, err := store.List("thread-1")
	require.NoError(t, err)
	assert.Len(t, infos, 3)

	// The last checkpoint has no pending nodes: the turn is complete.
	cp, err := checkpoint.Latest(store, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, "c", cp.NodeID)
	assert.Empty(t, cp.NextNodes)
	assert.False(t, cp.Suspended())
}

func TestRun_SuspendCheckpointMarksPending(t *testing.T) {
	gate := func(ctx Context, state Counter) Outcome[Counter] {
		return Suspend(state, "hold on")
	}

	compiled, err := New[Counter]().
		AddNode("gate", gate).
		AddEdge("gate", End).
		SetEntry("gate").
		Compile()
	require.NoError(t, err)

	store := checkpoint.NewMemoryStore()
	result, err := compiled.Run(testCtx(t), Counter{}, WithCheckpointing(store, "thread-2"))
	require.NoError(t, err)
	require.True(t, result.Suspended())

	cp, err := checkpoint.Latest(store, "thread-2")
	require.NoError(t, err)
	require.True(t, cp.Suspended())
	require.NotNil(t, cp.Interrupt)
	assert.Equal(t, "hold on", cp.Interrupt.Reason)
	assert.Equal(t, []string{"gate"}, cp.NextNodes)
}

// TestRun_StateAccumulation verifies append-only accumulation across
// node executions: N appends yield exactly N entries.
func TestRun_StateAccumulation(t *testing.T) {
	names := []string{"n1", "n2", "n3", "n4", "n5"}
	compiled := linearGraph(t, names...)

	result, err := compiled.Run(testCtx(t), Counter{})
	require.NoError(t, err)
	assert.Equal(t, names, result.State.Trail)
}
