package advisor

import (
	"encoding/json"

	"github.com/advisorhq/agentgraph/pkg/model"
)

// Upstream encodings of tool-call requests vary: the normalized field
// set here, checkpoint-restored generic maps, provider-keyed payloads
// under additional kwargs, and content-block arrays. Extraction tries
// each pure extractor in a fixed priority order and takes the first
// non-empty result, keeping the format instability out of routing and
// execution logic.
type extractor func(Message) []model.ToolCall

var extractors = []extractor{
	extractNormalized,
	extractRestored,
	extractProviderKwargs,
	extractContentBlocks,
}

// ExtractToolCalls returns the pending tool-call requests carried by
// the message, or nil when it carries none.
func ExtractToolCalls(msg Message) []model.ToolCall {
	for _, ex := range extractors {
		if calls := ex(msg); len(calls) > 0 {
			return calls
		}
	}
	return nil
}

// extractNormalized reads the typed ToolCalls field.
func extractNormalized(msg Message) []model.ToolCall {
	return msg.ToolCalls
}

// extractRestored reads tool calls that came back from a checkpoint
// as generic decoded JSON under the "tool_calls" kwarg.
func extractRestored(msg Message) []model.ToolCall {
	raw, ok := msg.Kwargs["tool_calls"]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var calls []model.ToolCall
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		call := model.ToolCall{
			ID:   stringField(m, "id"),
			Name: stringField(m, "name"),
		}
		if call.Name == "" {
			continue
		}
		if args, ok := m["args"]; ok {
			call.Arguments = marshalArgs(args)
		}
		calls = append(calls, call)
	}
	return calls
}

// extractProviderKwargs reads provider-shaped tool calls nested under
// "additional_kwargs", where each entry carries a "function" object
// with name and pre-serialized arguments.
func extractProviderKwargs(msg Message) []model.ToolCall {
	ak, ok := msg.Kwargs["additional_kwargs"].(map[string]any)
	if !ok {
		return nil
	}
	items, ok := ak["tool_calls"].([]any)
	if !ok {
		return nil
	}
	var calls []model.ToolCall
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		fn, ok := m["function"].(map[string]any)
		if !ok {
			continue
		}
		call := model.ToolCall{
			ID:   stringField(m, "id"),
			Name: stringField(fn, "name"),
		}
		if call.Name == "" {
			continue
		}
		if args := stringField(fn, "arguments"); args != "" {
			call.Arguments = json.RawMessage(args)
		}
		calls = append(calls, call)
	}
	return calls
}

// extractContentBlocks reads tool-use blocks from array-form content.
func extractContentBlocks(msg Message) []model.ToolCall {
	blocks, ok := msg.Content.([]any)
	if !ok {
		return nil
	}
	var calls []model.ToolCall
	for _, block := range blocks {
		m, ok := block.(map[string]any)
		if !ok {
			continue
		}
		if stringField(m, "type") != "tool_use" {
			continue
		}
		call := model.ToolCall{
			ID:   stringField(m, "id"),
			Name: stringField(m, "name"),
		}
		if call.Name == "" {
			continue
		}
		if input, ok := m["input"]; ok {
			call.Arguments = marshalArgs(input)
		}
		calls = append(calls, call)
	}
	return calls
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func marshalArgs(v any) json.RawMessage {
	if s, ok := v.(string); ok {
		return json.RawMessage(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
