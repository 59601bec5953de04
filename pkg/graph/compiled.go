package graph

// CompiledGraph is an immutable, executable graph.
// It is created by calling Compile() on a Graph builder.
//
// CompiledGraph is thread-safe and can be used concurrently for multiple
// Run() calls. The graph structure cannot be modified after compilation.
type CompiledGraph[S any] struct {
	nodes            map[NodeID]NodeFunc[S]
	edges            map[NodeID][]NodeID
	conditionalEdges map[NodeID]RouterFunc[S]
	entryPoint       NodeID

	// Pre-computed for efficient lookup
	predecessors  map[NodeID][]NodeID
	isConditional map[NodeID]bool
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S]) EntryPoint() NodeID {
	return cg.entryPoint
}

// NodeIDs returns all node identifiers in the graph.
// The order is not guaranteed.
func (cg *CompiledGraph[S]) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(cg.nodes))
	for id := range cg.nodes {
		ids = append(ids, id)
	}
	return ids
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph[S]) HasNode(id NodeID) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successors returns the node IDs reachable from the given node via
// simple (non-conditional) edges. Returns nil for End or unknown nodes.
func (cg *CompiledGraph[S]) Successors(id NodeID) []NodeID {
	if id == End {
		return nil
	}
	return cg.edges[id]
}

// Predecessors returns the node IDs that have edges to the given node.
func (cg *CompiledGraph[S]) Predecessors(id NodeID) []NodeID {
	return cg.predecessors[id]
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph[S]) IsConditional(id NodeID) bool {
	return cg.isConditional[id]
}

// getNode returns the node function for the given ID.
func (cg *CompiledGraph[S]) getNode(id NodeID) (NodeFunc[S], bool) {
	fn, exists := cg.nodes[id]
	return fn, exists
}

// getRouter returns the router function for the given node.
func (cg *CompiledGraph[S]) getRouter(id NodeID) (RouterFunc[S], bool) {
	router, exists := cg.conditionalEdges[id]
	return router, exists
}

// getEdges returns the simple edge targets for the given node.
func (cg *CompiledGraph[S]) getEdges(id NodeID) []NodeID {
	return cg.edges[id]
}
