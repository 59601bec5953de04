package advisor

import (
	"fmt"

	"github.com/advisorhq/agentgraph/pkg/graph"
	"github.com/advisorhq/agentgraph/pkg/model"
)

// GuardrailError is the fatal outcome of the cost/loop guardrail.
// Its message is user-facing and names both the observed value and
// the cap that was hit.
type GuardrailError struct {
	Kind     string // "iterations" or "tool_results"
	Observed int
	Limit    int
}

func (e *GuardrailError) Error() string {
	switch e.Kind {
	case "tool_results":
		return fmt.Sprintf(
			"this conversation used %d tool results, exceeding the limit of %d; please start a new request",
			e.Observed, e.Limit)
	default:
		return fmt.Sprintf(
			"this conversation reached %d of %d allowed iterations; please start a new request",
			e.Observed, e.Limit)
	}
}

// Guardrail returns the node run once at the start of every turn,
// before any routing. It increments the iteration counter or fails
// the turn when the iteration or tool-result caps are hit.
//
// It is deliberately cruder and cheaper than the engine's own step
// cap, which is configured strictly larger so this check always
// fires first with the better message.
func Guardrail(cfg Config) graph.NodeFunc[State] {
	return func(ctx graph.Context, state State) graph.Outcome[State] {
		maxIter := state.MaxIterations
		if maxIter <= 0 {
			maxIter = cfg.MaxIterations
		}

		if state.Iteration >= maxIter {
			ctx.Logger().Warn("guardrail tripped",
				"kind", "iterations",
				"iteration", state.Iteration,
				"max_iterations", maxIter)
			return graph.Fail(state, &GuardrailError{
				Kind:     "iterations",
				Observed: state.Iteration,
				Limit:    maxIter,
			})
		}

		if n := countToolResults(state.Messages); n > cfg.MaxToolResults {
			ctx.Logger().Warn("guardrail tripped",
				"kind", "tool_results",
				"tool_results", n,
				"max_tool_results", cfg.MaxToolResults)
			return graph.Fail(state, &GuardrailError{
				Kind:     "tool_results",
				Observed: n,
				Limit:    cfg.MaxToolResults,
			})
		}

		state.Iteration++
		state.MaxIterations = maxIter
		return graph.Continue(state)
	}
}

func countToolResults(msgs []Message) int {
	n := 0
	for _, m := range msgs {
		if m.Role == model.RoleTool {
			n++
		}
	}
	return n
}
