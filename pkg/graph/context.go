package graph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/advisorhq/agentgraph/pkg/graph/checkpoint"
	"github.com/advisorhq/agentgraph/pkg/graph/observability"
	"github.com/advisorhq/agentgraph/pkg/model"
	"github.com/advisorhq/agentgraph/pkg/tool"
)

// Context provides execution context to nodes.
// It extends context.Context with the services a node may need and
// per-execution metadata.
//
// Context is immutable after creation. The executor creates derived
// contexts for each node with updated NodeID and enriched logger.
type Context interface {
	context.Context

	// Services

	// Logger returns the configured logger, enriched with run and node
	// context. Never returns nil; defaults to slog.Default().
	Logger() *slog.Logger

	// Model returns the language model client, or nil if not configured.
	// Nodes should check for nil before using.
	Model() model.Client

	// Tools returns the tool source, or nil if not configured.
	// Nodes should check for nil before using.
	Tools() tool.Source

	// Checkpointer returns the checkpoint store, or nil if not configured.
	Checkpointer() checkpoint.Store

	// Metadata

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// NodeID returns the current node being executed.
	// Empty before execution starts.
	NodeID() NodeID
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger       *slog.Logger
	modelClient  model.Client
	tools        tool.Source
	checkpointer checkpoint.Store
	runID        string
	nodeID       NodeID
}

func (c *executionContext) Logger() *slog.Logger            { return c.logger }
func (c *executionContext) Model() model.Client             { return c.modelClient }
func (c *executionContext) Tools() tool.Source              { return c.tools }
func (c *executionContext) Checkpointer() checkpoint.Store  { return c.checkpointer }
func (c *executionContext) RunID() string                   { return c.runID }
func (c *executionContext) NodeID() NodeID                  { return c.nodeID }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger is enriched with run_id and node_id during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithModel sets the language model client for the context.
func WithModel(client model.Client) ContextOption {
	return func(c *executionContext) {
		c.modelClient = client
	}
}

// WithTools sets the tool source for the context.
func WithTools(src tool.Source) ContextOption {
	return func(c *executionContext) {
		c.tools = src
	}
}

// WithCheckpointer sets the checkpoint store for the context.
func WithCheckpointer(store checkpoint.Store) ContextOption {
	return func(c *executionContext) {
		c.checkpointer = store
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID is auto-generated. This is the identifier used for
// logging and tracing; for checkpointing, pass WithRunID to Run().
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := graph.NewContext(context.Background(),
//	    graph.WithLogger(logger),
//	    graph.WithContextRunID("turn-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withNodeID returns a derived context with the given node ID set.
// Used internally by the executor to enrich the context per node.
func (c *executionContext) withNodeID(nodeID NodeID) *executionContext {
	return &executionContext{
		Context:      c.Context,
		logger:       observability.EnrichLogger(c.logger, c.runID, string(nodeID)),
		modelClient:  c.modelClient,
		tools:        c.tools,
		checkpointer: c.checkpointer,
		runID:        c.runID,
		nodeID:       nodeID,
	}
}
