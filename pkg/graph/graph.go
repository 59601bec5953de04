package graph

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for creating execution graphs.
// Use New to create a graph, then chain AddNode, AddEdge, and SetEntry
// calls to define the workflow.
//
// Graph is NOT thread-safe during building. Construct the graph in a
// single goroutine, then call Compile() to create an immutable
// CompiledGraph that can be safely shared.
//
// Example:
//
//	g := graph.New[State]().
//	    AddNode("classify", classifyNode).
//	    AddNode("report", reportNode).
//	    AddEdge("classify", "report").
//	    AddEdge("report", graph.End).
//	    SetEntry("classify")
//
//	compiled, err := g.Compile()
type Graph[S any] struct {
	mu               sync.RWMutex
	nodes            map[NodeID]NodeFunc[S]
	edges            map[NodeID][]NodeID
	conditionalEdges map[NodeID]RouterFunc[S]
	entryPoint       NodeID
}

// New creates a new graph builder for state type S.
func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:            make(map[NodeID]NodeFunc[S]),
		edges:            make(map[NodeID][]NodeID),
		conditionalEdges: make(map[NodeID]RouterFunc[S]),
	}
}

// AddNode adds a named node to the graph.
// Returns the graph for method chaining.
//
// Panics if:
//   - id is empty
//   - id is the reserved terminal ID (case-insensitive "end"/"__end__")
//   - id contains whitespace
//   - fn is nil
//   - id already exists in the graph
func (g *Graph[S]) AddNode(id NodeID, fn NodeFunc[S]) *Graph[S] {
	if id == "" {
		panic("graph: node ID cannot be empty")
	}

	idLower := strings.ToLower(string(id))
	if idLower == "end" || idLower == "__end__" {
		panic("graph: node ID cannot be the reserved terminal ID")
	}

	if strings.ContainsAny(string(id), " \t\n\r") {
		panic("graph: node ID cannot contain whitespace")
	}

	if fn == nil {
		panic("graph: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("graph: duplicate node ID: %s", id))
	}

	g.nodes[id] = fn
	return g
}

// AddEdge adds an unconditional edge from one node to another.
// The target can be a node ID or graph.End.
// Returns the graph for method chaining.
//
// Edge validation happens at Compile() time, not here, so edges can be
// added in any order.
func (g *Graph[S]) AddEdge(from, to NodeID) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge adds a conditional edge where a RouterFunc
// determines the next node at runtime based on state.
// Returns the graph for method chaining.
//
// The router must return a valid node ID or graph.End. Returning an
// empty string or unknown node ID causes a runtime error.
//
// A node can have either simple edges or a conditional edge, not both.
// If both are present, the conditional edge takes precedence.
func (g *Graph[S]) AddConditionalEdge(from NodeID, router RouterFunc[S]) *Graph[S] {
	if router == nil {
		panic("graph: router function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.conditionalEdges[from] = router
	return g
}

// SetEntry designates the entry point node.
// This must be called before Compile().
// Returns the graph for method chaining.
func (g *Graph[S]) SetEntry(id NodeID) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entryPoint = id
	return g
}
