package advisor

import "github.com/advisorhq/agentgraph/pkg/graph"

// The closed set of node identifiers in the advisory graph. Routers
// only ever return members of this set (or graph.End), and the graph
// builder registers exactly these, so adding a node is an explicit
// change here rather than a stringly-typed route entry.
const (
	NodeGuardrail     = graph.NodeID("guardrail")
	NodeReasoning     = graph.NodeID("reasoning")
	NodeToolExecution = graph.NodeID("tool_execution")
	NodeApprovalGate  = graph.NodeID("approval_gate")
	NodePerformance   = graph.NodeID("performance_attribution")
	NodeHITLTest      = graph.NodeID("hitl_test")
)
