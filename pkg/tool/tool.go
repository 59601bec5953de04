// Package tool defines the tool contract and the registry that makes
// tools available to graph nodes.
package tool

import (
	"context"
	"encoding/json"

	"github.com/advisorhq/agentgraph/pkg/model"
)

// Tool is an executable capability the model can invoke.
// Implementations must be safe for concurrent use: the executor fans
// tool calls out across goroutines.
type Tool interface {
	// Name returns the identifier the model uses to invoke the tool.
	Name() string

	// Description explains what the tool does, for the model's benefit.
	Description() string

	// Schema returns the JSON Schema of the tool's arguments.
	Schema() json.RawMessage

	// Call executes the tool with the given JSON-encoded arguments.
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// Source is the read side of a tool collection, as seen by graph nodes.
type Source interface {
	// Get returns the named tool and whether it exists.
	Get(name string) (Tool, bool)

	// Definitions returns the tool definitions to advertise to the model.
	Definitions() []model.ToolDefinition

	// Names returns the registered tool names in sorted order.
	Names() []string
}

// Func is a function-backed tool.
type Func struct {
	name        string
	description string
	schema      json.RawMessage
	fn          func(ctx context.Context, args json.RawMessage) (any, error)
}

// NewFunc creates a tool from a function. The schema should be a JSON
// Schema object describing the arguments.
func NewFunc(name, description string, schema json.RawMessage, fn func(ctx context.Context, args json.RawMessage) (any, error)) *Func {
	return &Func{
		name:        name,
		description: description,
		schema:      schema,
		fn:          fn,
	}
}

func (f *Func) Name() string            { return f.name }
func (f *Func) Description() string     { return f.description }
func (f *Func) Schema() json.RawMessage { return f.schema }

func (f *Func) Call(ctx context.Context, args json.RawMessage) (any, error) {
	return f.fn(ctx, args)
}
