package advisor

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/advisorhq/agentgraph/pkg/graph"
	"github.com/advisorhq/agentgraph/pkg/graph/observability"
	"github.com/advisorhq/agentgraph/pkg/model"
	"github.com/advisorhq/agentgraph/pkg/tool"
)

const errNoToolRegistry = "tool registry unavailable"

// eventsToolName is the auxiliary tool queried during the enrichment
// pass after a batch completes.
const eventsToolName = "get_upcoming_events"

// enrichableTools are the tools whose successful results get a
// best-effort upcoming-events advisory attached.
var enrichableTools = map[string]bool{
	"get_stock_price": true,
}

// ToolResult is the outcome of one tool call. Exactly one result is
// produced per request: failures are carried in Error instead of
// aborting the batch.
type ToolResult struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Result   any             `json:"result,omitempty"`
	Error    *ToolError      `json:"error,omitempty"`
	Advisory any             `json:"advisory,omitempty"`
	Duration time.Duration   `json:"-"`
	args     json.RawMessage
}

// ToolError is the structured failure payload inside a ToolResult.
type ToolError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	toolErrNotFound  = "not_found"
	toolErrBadArgs   = "bad_arguments"
	toolErrExecution = "execution"
)

// ToolExecution runs every pending tool-call request from the last
// message concurrently and appends one tool message per request, in
// request order. Individual failures are isolated into the matching
// result; only a missing tool registry fails the batch as a whole,
// recorded as an error the post-tool router treats as terminal.
func ToolExecution(cfg Config, metrics observability.MetricsRecorder) graph.NodeFunc[State] {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return func(ctx graph.Context, state State) graph.Outcome[State] {
		last, ok := state.LastMessage()
		if !ok {
			return graph.Continue(state)
		}
		calls := ExtractToolCalls(last)
		if len(calls) == 0 {
			return graph.Continue(state)
		}

		src := ctx.Tools()
		if src == nil {
			ctx.Logger().Error("cannot execute tool batch", "error", errNoToolRegistry)
			return graph.Continue(state.AppendError(
				fmt.Sprintf("tool_execution: %s, cannot run %d requested calls", errNoToolRegistry, len(calls))))
		}

		started := time.Now()
		results := runBatch(ctx, src, calls)
		enrich(ctx, src, results)
		batchDuration := time.Since(started)

		failed := 0
		msgs := make([]Message, 0, len(results))
		for _, res := range results {
			if res.Error != nil {
				failed++
			}
			msgs = append(msgs, toolMessage(res))
		}
		metrics.RecordToolBatch(ctx, len(calls), failed, batchDuration)
		observability.LogToolBatch(ctx.Logger(), len(calls), failed, float64(batchDuration.Milliseconds()))

		return graph.Continue(state.Append(msgs...))
	}
}

// runBatch fans the calls out across a goroutine pool and collects
// results indexed by request position, so the returned slice
// correlates 1:1 with the input regardless of completion order.
func runBatch(ctx graph.Context, src tool.Source, calls []model.ToolCall) []*ToolResult {
	results := make([]*ToolResult, len(calls))

	pool, err := ants.NewPool(len(calls))
	if err != nil {
		// Pool creation only fails on invalid size; fall back to
		// sequential execution.
		for i, call := range calls {
			results[i] = runCall(ctx, src, call)
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = runCall(ctx, src, call)
		})
		if submitErr != nil {
			results[i] = runCall(ctx, src, call)
			wg.Done()
		}
	}
	wg.Wait()
	return results
}

// runCall executes a single tool call, converting every failure mode
// into a structured error result.
func runCall(ctx graph.Context, src tool.Source, call model.ToolCall) (res *ToolResult) {
	res = &ToolResult{ID: call.ID, Name: call.Name, args: call.Arguments}
	started := time.Now()
	defer func() {
		res.Duration = time.Since(started)
		if r := recover(); r != nil {
			res.Result = nil
			res.Error = &ToolError{
				Kind:    toolErrExecution,
				Message: fmt.Sprintf("tool %q panicked: %v", call.Name, r),
			}
		}
	}()

	t, ok := src.Get(call.Name)
	if !ok {
		res.Error = &ToolError{
			Kind:    toolErrNotFound,
			Message: fmt.Sprintf("tool not found: %s", call.Name),
		}
		return res
	}

	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	} else if !json.Valid(args) {
		res.Error = &ToolError{
			Kind:    toolErrBadArgs,
			Message: fmt.Sprintf("tool %q received malformed arguments", call.Name),
		}
		return res
	}

	out, err := t.Call(ctx, args)
	if err != nil {
		res.Error = &ToolError{
			Kind:    toolErrExecution,
			Message: err.Error(),
		}
		return res
	}
	res.Result = out
	return res
}

// enrich attaches an upcoming-events advisory to each enrichable
// successful result, one auxiliary query per result, concurrently.
// This pass is best effort: failures and a missing auxiliary tool
// are silently ignored.
func enrich(ctx graph.Context, src tool.Source, results []*ToolResult) {
	events, ok := src.Get(eventsToolName)
	if !ok {
		return
	}

	var wg sync.WaitGroup
	for _, res := range results {
		if res.Error != nil || !enrichableTools[res.Name] {
			continue
		}
		res := res
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { recover() }()
			out, err := events.Call(ctx, res.args)
			if err == nil && out != nil {
				res.Advisory = out
			}
		}()
	}
	wg.Wait()
}

// toolMessage renders a result as the tool message appended to state.
func toolMessage(res *ToolResult) Message {
	payload, err := json.Marshal(res)
	content := any(nil)
	if err != nil {
		content = fmt.Sprintf("tool %s: result not serializable: %v", res.Name, err)
	} else {
		content = string(payload)
	}
	return Message{
		Role:       model.RoleTool,
		Content:    content,
		ToolCallID: res.ID,
		Name:       res.Name,
	}
}
