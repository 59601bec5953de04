// Package graph implements a directed state-machine engine for
// conversational agent turns.
//
// A graph is a set of named nodes connected by simple or conditional
// edges. State of an arbitrary type S flows through the nodes; each node
// returns a tagged Outcome: Continue with updated state, Suspend pending
// external input, or Fail. The executor walks the graph from the entry
// point, persists a checkpoint after every node transition, and halts at
// the End node, on suspension, or on error.
//
// Build a graph with New, add nodes and edges, then Compile to obtain an
// immutable CompiledGraph safe for concurrent runs:
//
//	g := graph.New[State]().
//	    AddNode("guard", guardNode).
//	    AddConditionalEdge("guard", route).
//	    AddNode("report", reportNode).
//	    AddEdge("report", graph.End).
//	    SetEntry("guard")
//	compiled, err := g.Compile()
//
// Runs are thread-scoped: pass WithCheckpointing(store, threadID) to
// persist state, and call Resume to continue a suspended thread after
// injecting new input with WithStateUpdate.
//
// Within a single run, nodes execute strictly sequentially. The engine
// assumes at most one writer per thread; callers serialize concurrent
// turns for the same thread.
package graph
