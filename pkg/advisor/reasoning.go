package advisor

import (
	"fmt"

	"github.com/advisorhq/agentgraph/pkg/graph"
	"github.com/advisorhq/agentgraph/pkg/model"
)

const systemPrompt = `You are a financial advisory assistant. You help users ` +
	`understand their portfolio, analyze markets, and evaluate investment ideas. ` +
	`Use the available tools to fetch market data before answering questions ` +
	`that depend on current prices or news. Be precise with numbers, state ` +
	`assumptions, and never present an estimate as a guarantee.`

const apologyMessage = "I'm sorry, I ran into a problem while working on your " +
	"request. Please try again in a moment."

// Reasoning invokes the model over a bounded window of the
// conversation with tool definitions bound. The model either answers
// in free text, which becomes the final report, or requests tool
// calls for the executor to run.
//
// Invocation failures never propagate: they are recorded and replaced
// with a user-safe apology so the turn still reaches its terminal
// node.
func Reasoning(cfg Config, counter model.TokenCounter) graph.NodeFunc[State] {
	if counter == nil {
		counter = model.NewTokenCounter(cfg.Model)
	}
	return func(ctx graph.Context, state State) graph.Outcome[State] {
		client := ctx.Model()
		if client == nil {
			state = state.AppendError("reasoning: no model client configured")
			return graph.Continue(state.Append(Message{
				Role:    model.RoleAssistant,
				Content: apologyMessage,
			}))
		}

		req := model.Request{
			Messages: contextWindow(state.Messages, counter, cfg.TokenBudget),
			Model:    cfg.Model,
		}
		if src := ctx.Tools(); src != nil {
			req.Tools = src.Definitions()
		}

		resp, err := client.Complete(ctx, req)
		if err != nil {
			ctx.Logger().Error("model invocation failed", "error", err)
			state = state.AppendError(fmt.Sprintf("reasoning: model invocation failed: %v", err))
			return graph.Continue(state.Append(Message{
				Role:    model.RoleAssistant,
				Content: apologyMessage,
			}))
		}

		msg := Message{
			Role:      model.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		state = state.Append(msg)
		if len(resp.ToolCalls) == 0 {
			state.FinalReport = resp.Content
			state.NextAction = "end"
		} else {
			state.NextAction = string(NodeToolExecution)
		}
		return graph.Continue(state)
	}
}

// contextWindow selects the model input: the system prompt plus as
// many of the most recent messages as fit the token budget, scanned
// greedily from newest backward. The newest message is always
// included even if it alone exceeds the budget; older messages are
// dropped from this call only, never from state.
func contextWindow(msgs []Message, counter model.TokenCounter, budget int) []model.Message {
	out := []model.Message{{Role: model.RoleSystem, Content: systemPrompt}}
	if len(msgs) == 0 {
		return out
	}

	spent := counter.Count(systemPrompt)
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := counter.Count(msgs[i].Text())
		if spent+cost > budget && start < len(msgs) {
			break
		}
		spent += cost
		start = i
	}

	for _, m := range msgs[start:] {
		out = append(out, model.Message{
			Role:       m.Role,
			Content:    m.Text(),
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		})
	}
	return out
}
