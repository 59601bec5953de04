// Package advisor implements the conversational financial-advisory
// agent: its execution state, graph nodes, routing, and the
// orchestrator that fronts them.
package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/advisorhq/agentgraph/pkg/model"
)

// Message is one entry in the conversation transcript.
//
// Content is usually a string but may be a structured value: some
// providers return content as an array of typed blocks, and
// checkpoint restoration can surface it as decoded JSON. Use Text()
// when a textual view is needed.
type Message struct {
	Role       model.Role       `json:"role"`
	Content    any              `json:"content"`
	ToolCalls  []model.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
	Kwargs     map[string]any   `json:"kwargs,omitempty"`
}

// Text returns the textual form of the message content.
// Non-string content is serialized to JSON.
func (m Message) Text() string {
	switch c := m.Content.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Sprintf("%v", c)
		}
		return string(b)
	}
}

// State is the record threaded through every node of a turn.
//
// Messages and Errors are append-only: nodes extend them via Append
// and AppendError, never truncate or overwrite. Iteration only
// increases. FinalReport is set once by a terminal node.
type State struct {
	UserID              string               `json:"user_id"`
	ThreadID            string               `json:"thread_id"`
	Messages            []Message            `json:"messages"`
	Errors              []string             `json:"errors,omitempty"`
	Iteration           int                  `json:"iteration"`
	MaxIterations       int                  `json:"max_iterations"`
	NextAction          string               `json:"next_action,omitempty"`
	FinalReport         string               `json:"final_report,omitempty"`
	PortfolioContext    json.RawMessage      `json:"portfolio_context,omitempty"`
	PerformanceAnalysis *PerformanceAnalysis `json:"performance_analysis,omitempty"`
}

// Append returns a copy of the state with the messages added.
// The original message slice is never mutated in place, so earlier
// snapshots of the state remain valid.
func (s State) Append(msgs ...Message) State {
	combined := make([]Message, 0, len(s.Messages)+len(msgs))
	combined = append(combined, s.Messages...)
	combined = append(combined, msgs...)
	s.Messages = combined
	return s
}

// AppendError returns a copy of the state with a diagnostic recorded.
func (s State) AppendError(msg string) State {
	combined := make([]string, 0, len(s.Errors)+1)
	combined = append(combined, s.Errors...)
	combined = append(combined, msg)
	s.Errors = combined
	return s
}

// LastMessage returns the most recent message, if any.
func (s State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastError returns the most recent diagnostic, or "".
func (s State) LastError() string {
	if len(s.Errors) == 0 {
		return ""
	}
	return s.Errors[len(s.Errors)-1]
}

// scopeSeparator joins a user id and a thread id into a scoped
// thread id. User ids must not contain it.
const scopeSeparator = ":"

// ScopeThreadID builds the composite "{userId}:{threadId}" key under
// which a thread's checkpoints are stored.
func ScopeThreadID(userID, threadID string) string {
	return userID + scopeSeparator + threadID
}

// ParseScopedThreadID splits a scoped thread id into its parts.
// Returns ok=false when the value carries no scope separator.
func ParseScopedThreadID(scoped string) (userID, threadID string, ok bool) {
	return strings.Cut(scoped, scopeSeparator)
}

// EnsureScoped accepts either a bare thread id or an already-scoped
// one and returns the scoped form for the given user.
//
// When the value is already scoped to a different user, ownership is
// rejected: the embedded user id is the access-control boundary for
// conversation state.
func EnsureScoped(userID, threadID string) (string, error) {
	owner, _, scoped := ParseScopedThreadID(threadID)
	if !scoped {
		return ScopeThreadID(userID, threadID), nil
	}
	if owner != userID {
		return "", ErrForbidden
	}
	return threadID, nil
}
