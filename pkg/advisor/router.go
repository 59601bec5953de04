package advisor

import (
	"strings"

	"github.com/advisorhq/agentgraph/pkg/graph"
	"github.com/advisorhq/agentgraph/pkg/model"
)

// hitlTrigger is the debug keyword the test-only HITL node reacts to.
const hitlTrigger = "trigger_hitl"

var performanceKeywords = []string{
	"performance",
	"returns",
	"return on",
	"alpha",
	"attribution",
	"ytd",
	"how am i doing",
	"how did i do",
}

var analysisKeywords = []string{
	"analyze",
	"analysis",
	"market",
	"sector",
	"outlook",
	"stock",
	"price",
	"news",
}

// TopRouter is the dispatch run after the guardrail. It is a pure,
// total function of the state: first matching rule wins, rules for
// disabled nodes are skipped, and an empty state falls through to
// reasoning.
func TopRouter(cfg Config) graph.RouterFunc[State] {
	return func(ctx graph.Context, state State) graph.NodeID {
		last, ok := state.LastMessage()
		if !ok {
			return NodeReasoning
		}

		if len(ExtractToolCalls(last)) > 0 {
			return NodeToolExecution
		}
		if last.Role == model.RoleTool {
			return NodeReasoning
		}

		text := last.Text()
		lower := strings.ToLower(text)

		if cfg.ApprovalGateEnabled {
			if _, matched := classifyApproval(cfg, text); matched {
				return NodeApprovalGate
			}
		}
		if cfg.HITLTestEnabled && strings.Contains(lower, hitlTrigger) {
			return NodeHITLTest
		}
		if containsAny(lower, performanceKeywords) {
			return NodePerformance
		}
		if containsAny(lower, analysisKeywords) {
			return NodeReasoning
		}
		return NodeReasoning
	}
}

// AfterReasoning routes to tool execution when the assistant message
// just produced carries tool-call requests in any known encoding,
// else ends the turn.
func AfterReasoning() graph.RouterFunc[State] {
	return func(ctx graph.Context, state State) graph.NodeID {
		last, ok := state.LastMessage()
		if !ok {
			return graph.End
		}
		if len(ExtractToolCalls(last)) > 0 {
			return NodeToolExecution
		}
		return graph.End
	}
}

// AfterTools resumes reasoning so the model can observe tool output.
// The one exception is a missing tool registry, which is not
// recoverable within the turn.
func AfterTools() graph.RouterFunc[State] {
	return func(ctx graph.Context, state State) graph.NodeID {
		if strings.Contains(state.LastError(), errNoToolRegistry) {
			return graph.End
		}
		return NodeReasoning
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
