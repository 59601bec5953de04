package advisor

import (
	"strings"

	"github.com/advisorhq/agentgraph/pkg/graph"
	"github.com/advisorhq/agentgraph/pkg/model"
)

// HITLTest is a test-only node for exercising the suspend/resume
// protocol end to end without a real approval scenario. It suspends
// when the last message carries the trigger keyword; on resume the
// injected input no longer triggers, so the turn acknowledges and
// ends.
func HITLTest() graph.NodeFunc[State] {
	return func(ctx graph.Context, state State) graph.Outcome[State] {
		last, ok := state.LastMessage()
		if ok && strings.Contains(strings.ToLower(last.Text()), hitlTrigger) {
			return graph.Suspend(state, "human-in-the-loop test interrupt")
		}
		return graph.Continue(state.Append(Message{
			Role:    model.RoleAssistant,
			Content: "Human-in-the-loop test complete.",
		}))
	}
}
