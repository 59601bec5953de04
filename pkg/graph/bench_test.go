package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/advisorhq/agentgraph/pkg/graph/checkpoint"
)

func buildLinearBench(n int) *CompiledGraph[Counter] {
	g := New[Counter]()
	for i := 0; i < n; i++ {
		g.AddNode(NodeID(fmt.Sprintf("n%d", i)), step(fmt.Sprintf("n%d", i)))
	}
	for i := 0; i < n-1; i++ {
		g.AddEdge(NodeID(fmt.Sprintf("n%d", i)), NodeID(fmt.Sprintf("n%d", i+1)))
	}
	g.AddEdge(NodeID(fmt.Sprintf("n%d", n-1)), End)
	g.SetEntry("n0")

	compiled, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}

func BenchmarkRun_Linear_5(b *testing.B) {
	compiled := buildLinearBench(5)
	ctx := NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Run(ctx, Counter{})
	}
}

func BenchmarkRun_Linear_50(b *testing.B) {
	compiled := buildLinearBench(50)
	ctx := NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Run(ctx, Counter{})
	}
}

func BenchmarkRun_Conditional(b *testing.B) {
	router := func(ctx Context, state Counter) NodeID {
		if state.Value < 5 {
			return "loop"
		}
		return End
	}
	compiled, err := New[Counter]().
		AddNode("loop", step("loop")).
		AddConditionalEdge("loop", router).
		SetEntry("loop").
		Compile()
	if err != nil {
		b.Fatal(err)
	}

	ctx := NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Run(ctx, Counter{})
	}
}

func BenchmarkRun_WithCheckpointing(b *testing.B) {
	compiled := buildLinearBench(5)
	store := checkpoint.NewMemoryStore()
	ctx := NewContext(context.Background())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = compiled.Run(ctx, Counter{},
			WithCheckpointing(store, fmt.Sprintf("bench-%d", i)))
	}
}
