package advisor

import (
	"fmt"

	"github.com/advisorhq/agentgraph/pkg/graph"
	"github.com/advisorhq/agentgraph/pkg/graph/observability"
	"github.com/advisorhq/agentgraph/pkg/model"
)

// Deps are the collaborators nodes need beyond what the execution
// context carries.
type Deps struct {
	// Performance computes attribution results. May be nil; the
	// attribution node then degrades to an apology.
	Performance PerformanceService

	// TokenCounter bounds the reasoning context window. Nil selects
	// the best counter available for the configured model.
	TokenCounter model.TokenCounter

	// Metrics records tool-batch metrics. Nil disables recording.
	Metrics observability.MetricsRecorder
}

// BuildGraph assembles and compiles the advisory graph for the given
// configuration. Topology follows the config: the approval gate and
// the HITL test node are only present when enabled, and the routers
// are built against the same config so they never target an absent
// node.
func BuildGraph(cfg Config, deps Deps) (*graph.CompiledGraph[State], error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	g := graph.New[State]().
		AddNode(NodeGuardrail, Guardrail(cfg)).
		AddNode(NodeReasoning, Reasoning(cfg, deps.TokenCounter)).
		AddNode(NodeToolExecution, ToolExecution(cfg, deps.Metrics)).
		AddNode(NodePerformance, PerformanceAttribution(deps.Performance)).
		SetEntry(NodeGuardrail).
		AddConditionalEdge(NodeGuardrail, TopRouter(cfg)).
		AddConditionalEdge(NodeReasoning, AfterReasoning()).
		AddConditionalEdge(NodeToolExecution, AfterTools()).
		AddEdge(NodePerformance, graph.End)

	if cfg.ApprovalGateEnabled {
		g.AddNode(NodeApprovalGate, ApprovalGate(cfg)).
			AddEdge(NodeApprovalGate, graph.End)
	}
	if cfg.HITLTestEnabled {
		g.AddNode(NodeHITLTest, HITLTest()).
			AddEdge(NodeHITLTest, graph.End)
	}

	compiled, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return compiled, nil
}
