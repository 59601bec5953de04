package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/advisorhq/agentgraph/pkg/graph"
	"github.com/advisorhq/agentgraph/pkg/model"
	"github.com/advisorhq/agentgraph/pkg/tool"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubModel returns canned responses in order, then repeats the last.
type stubModel struct {
	responses []*model.Response
	requests  []model.Request
	err       error
}

func (s *stubModel) Complete(_ context.Context, req model.Request) (*model.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return &model.Response{Content: "ok"}, nil
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

func textResponse(content string) *model.Response {
	return &model.Response{Content: content, FinishReason: "stop"}
}

func toolCallResponse(calls ...model.ToolCall) *model.Response {
	return &model.Response{ToolCalls: calls, FinishReason: "tool_calls"}
}

// testRegistry registers simple tools for batch tests.
func testRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()

	require.NoError(t, reg.Register(tool.NewFunc("get_stock_price",
		"quote lookup", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Ticker string `json:"ticker"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, err
			}
			return map[string]any{"ticker": in.Ticker, "price": 101.5}, nil
		})))

	require.NoError(t, reg.Register(tool.NewFunc("get_upcoming_events",
		"events lookup", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return []map[string]any{{"kind": "earnings"}}, nil
		})))

	require.NoError(t, reg.Register(tool.NewFunc("flaky",
		"always fails", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return nil, fmt.Errorf("upstream timeout")
		})))

	return reg
}

func testContext(t *testing.T, opts ...graph.ContextOption) graph.Context {
	t.Helper()
	opts = append([]graph.ContextOption{graph.WithLogger(quietLogger())}, opts...)
	return graph.NewContext(context.Background(), opts...)
}

func userMsg(text string) Message {
	return Message{Role: model.RoleUser, Content: text}
}
