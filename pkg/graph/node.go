package graph

// NodeID names a single step in an execution graph.
// The set of valid node IDs for a given graph is closed at build time.
type NodeID string

// End is the terminal node identifier.
// Use this as an edge target to indicate the graph should halt.
const End NodeID = "__end__"

// NodeFunc is the signature for all node functions.
// Nodes receive the execution context and current state, and return an
// Outcome describing what the executor should do next: continue with an
// updated state, suspend the run pending external input, or fail.
//
// The state parameter is passed by value. Nodes should derive and return
// a new state value, not rely on pointer mutation.
//
// Example:
//
//	func increment(ctx graph.Context, s Counter) graph.Outcome[Counter] {
//	    s.Value++
//	    return graph.Continue(s)
//	}
type NodeFunc[S any] func(ctx Context, state S) Outcome[S]

// RouterFunc determines the next node based on state.
// It is used for conditional edges where the next node depends on runtime
// state.
//
// The router should return a valid node ID or graph.End.
// Returning an empty string or an unknown node ID causes a runtime error.
type RouterFunc[S any] func(ctx Context, state S) NodeID
