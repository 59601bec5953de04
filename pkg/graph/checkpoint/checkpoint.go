package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to the checkpoint structure.
const Version = 1

// Interrupt records a pending suspension inside a checkpoint.
type Interrupt struct {
	// Reason is the human-readable suspension reason.
	Reason string `json:"reason"`

	// NodeID is the node that raised the interrupt.
	NodeID string `json:"node_id"`

	// RaisedAt records when the interrupt was raised.
	RaisedAt time.Time `json:"raised_at"`
}

// Checkpoint is the persisted snapshot of a thread's execution state.
// It contains everything needed to resume the thread: the serialized
// state, the nodes still pending execution (empty when the turn
// completed), and the pending interrupt, if any.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	ThreadID  string    `json:"thread_id"`
	NodeID    string    `json:"node_id"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	// Execution state
	State     json.RawMessage `json:"state"`
	NextNodes []string        `json:"next_nodes,omitempty"`

	// Interrupt is non-nil while the thread is suspended pending
	// human input.
	Interrupt *Interrupt `json:"interrupt,omitempty"`

	// PrevNodeID aids debugging; not used for resume.
	PrevNodeID string `json:"prev_node_id,omitempty"`
}

// Suspended reports whether the checkpoint represents a resumable,
// incomplete turn: either an interrupt is pending or nodes remain.
func (c *Checkpoint) Suspended() bool {
	return c.Interrupt != nil || len(c.NextNodes) > 0
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// New creates a new checkpoint with the given parameters.
// State must already be JSON-serialized.
func New(threadID, nodeID string, sequence int, state []byte, nextNodes []string) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		ThreadID:  threadID,
		NodeID:    nodeID,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		State:     state,
		NextNodes: nextNodes,
	}
}

// WithInterrupt marks the checkpoint as suspended on the given interrupt.
func (c *Checkpoint) WithInterrupt(reason, nodeID string, raisedAt time.Time) *Checkpoint {
	c.Interrupt = &Interrupt{Reason: reason, NodeID: nodeID, RaisedAt: raisedAt}
	return c
}

// WithPrevNode sets the previous node ID for debugging.
func (c *Checkpoint) WithPrevNode(prevNodeID string) *Checkpoint {
	c.PrevNodeID = prevNodeID
	return c
}
