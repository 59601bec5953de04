package advisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorhq/agentgraph/pkg/model"
)

func newTestOrchestrator(t *testing.T, cfg Config, opts ...OrchestratorOption) *Orchestrator {
	t.Helper()
	opts = append([]OrchestratorOption{WithLogger(quietLogger())}, opts...)
	orch, err := NewOrchestrator(cfg, opts...)
	require.NoError(t, err)
	return orch
}

func TestOrchestrator_MissingUserID(t *testing.T) {
	orch := newTestOrchestrator(t, DefaultConfig())

	_, err := orch.Run(context.Background(), "", RunInput{Message: "hi"}, "")
	assert.ErrorIs(t, err, ErrMissingUserID)

	_, err = orch.Resume(context.Background(), "", "t1", "yes")
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestOrchestrator_CompletedTurn(t *testing.T) {
	client := &stubModel{responses: []*model.Response{
		textResponse("Here is my market view."),
	}}
	orch := newTestOrchestrator(t, DefaultConfig(), WithModelClient(client))

	res, err := orch.Run(context.Background(), "alice", RunInput{
		Message: "give me an analysis of the energy sector",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "Here is my market view.", res.State.FinalReport)
	assert.Contains(t, res.ThreadID, "alice:")
	assert.Equal(t, 1, res.State.Iteration)
}

// TestOrchestrator_InterruptResumeRoundTrip exercises the full
// suspend/resume protocol: a high-risk phrase suspends, confirmation
// completes without re-raising the interrupt.
func TestOrchestrator_InterruptResumeRoundTrip(t *testing.T) {
	orch := newTestOrchestrator(t, DefaultConfig())
	ctx := context.Background()

	res, err := orch.Run(ctx, "alice", RunInput{Message: "Sell all my positions"}, "")
	require.NoError(t, err)
	require.Equal(t, StatusSuspended, res.Status)
	assert.Contains(t, res.InterruptReason, "high-risk")
	assert.Contains(t, res.InterruptReason, "approval")

	resumed, err := orch.Resume(ctx, "alice", res.ThreadID, "yes, proceed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resumed.Status)
	assert.Empty(t, resumed.InterruptReason)

	// The confirmation is present in the transcript.
	found := false
	for _, m := range resumed.State.Messages {
		if m.Text() == "yes, proceed" {
			found = true
		}
	}
	assert.True(t, found)
}

// TestOrchestrator_OwnershipForbidden verifies resuming another
// user's thread always fails with the explicit forbidden error.
func TestOrchestrator_OwnershipForbidden(t *testing.T) {
	orch := newTestOrchestrator(t, DefaultConfig())
	ctx := context.Background()

	res, err := orch.Run(ctx, "alice", RunInput{Message: "Sell all my positions"}, "")
	require.NoError(t, err)
	require.Equal(t, StatusSuspended, res.Status)

	_, err = orch.Resume(ctx, "bob", res.ThreadID, "yes")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = orch.Run(ctx, "bob", RunInput{Message: "hi"}, res.ThreadID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = orch.GetState(ctx, "bob", res.ThreadID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestOrchestrator_ResumeUnknownThread(t *testing.T) {
	orch := newTestOrchestrator(t, DefaultConfig())

	_, err := orch.Resume(context.Background(), "alice", "alice:nope", "yes")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestOrchestrator_ResumeCompletedThread(t *testing.T) {
	client := &stubModel{}
	orch := newTestOrchestrator(t, DefaultConfig(), WithModelClient(client))
	ctx := context.Background()

	res, err := orch.Run(ctx, "alice", RunInput{Message: "hello"}, "")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res.Status)

	_, err = orch.Resume(ctx, "alice", res.ThreadID, "yes")
	assert.ErrorIs(t, err, ErrThreadNotSuspended)
}

func TestOrchestrator_GuardrailFailureShaped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	client := &stubModel{}
	orch := newTestOrchestrator(t, cfg, WithModelClient(client))
	ctx := context.Background()

	res, err := orch.Run(ctx, "alice", RunInput{Message: "hello"}, "t")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res.Status)

	// The second turn starts at the cap and fails with the guardrail
	// message, not an unclassified engine error.
	res2, err := orch.Run(ctx, "alice", RunInput{Message: "again"}, "t")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res2.Status)
	var gerr *GuardrailError
	require.ErrorAs(t, res2.Err, &gerr)
}

// TestOrchestrator_MultiTurnAccumulation verifies the transcript
// carries across turns on the same thread with no loss.
func TestOrchestrator_MultiTurnAccumulation(t *testing.T) {
	client := &stubModel{responses: []*model.Response{
		textResponse("first answer"),
		textResponse("second answer"),
	}}
	orch := newTestOrchestrator(t, DefaultConfig(), WithModelClient(client))
	ctx := context.Background()

	res, err := orch.Run(ctx, "alice", RunInput{Message: "first question"}, "")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res.Status)
	assert.Len(t, res.State.Messages, 2)

	res2, err := orch.Run(ctx, "alice", RunInput{Message: "second question"}, res.ThreadID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res2.Status)
	assert.Len(t, res2.State.Messages, 4)
	// The iteration counter persists across turns on a thread.
	assert.Equal(t, 2, res2.State.Iteration)
}

func TestOrchestrator_GetState(t *testing.T) {
	client := &stubModel{}
	orch := newTestOrchestrator(t, DefaultConfig(), WithModelClient(client))
	ctx := context.Background()

	res, err := orch.Run(ctx, "alice", RunInput{Message: "hello"}, "")
	require.NoError(t, err)

	st, err := orch.GetState(ctx, "alice", res.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, "alice", st.UserID)
	assert.NotEmpty(t, st.Messages)

	_, err = orch.GetState(ctx, "alice", "missing-thread")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestOrchestrator_PerformanceTurn(t *testing.T) {
	svc := &stubPerformance{analysis: &PerformanceAnalysis{
		Timeframe: "YTD", TotalReturn: 8, BenchmarkReturn: 6, Alpha: 2,
	}}
	orch := newTestOrchestrator(t, DefaultConfig(), WithPerformance(svc))

	res, err := orch.Run(context.Background(), "alice",
		RunInput{Message: "show me my YTD performance"}, "")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	require.NotNil(t, res.State.PerformanceAnalysis)
	assert.Contains(t, res.State.FinalReport, "year-to-date")
}
