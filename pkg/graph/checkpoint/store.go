// Package checkpoint provides persistent checkpoint storage for
// resumable, thread-scoped conversation turns.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists checkpoints for resume and crash recovery.
// Implementations must be safe for concurrent use across threads;
// callers are responsible for serializing writes within one thread.
type Store interface {
	// Save stores a checkpoint for a thread at a specific node.
	// Overwrites if a checkpoint for (threadID, nodeID) already exists.
	Save(threadID, nodeID string, data []byte) error

	// Load retrieves a checkpoint.
	// Returns ErrNotFound if the checkpoint doesn't exist.
	Load(threadID, nodeID string) ([]byte, error)

	// List returns all checkpoints for a thread, ordered by sequence.
	// Returns an empty slice (not an error) if the thread has none.
	List(threadID string) ([]Info, error)

	// Delete removes a specific checkpoint.
	// Returns nil if the checkpoint doesn't exist.
	Delete(threadID, nodeID string) error

	// DeleteThread removes all checkpoints for a thread.
	// Returns nil if the thread has no checkpoints.
	DeleteThread(threadID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading full state.
type Info struct {
	ThreadID  string
	NodeID    string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)

// Latest loads and decodes the most recent checkpoint for a thread.
// Returns ErrNotFound if the thread has no checkpoints.
func Latest(store Store, threadID string) (*Checkpoint, error) {
	infos, err := store.List(threadID)
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, ErrNotFound
	}

	data, err := store.Load(threadID, infos[len(infos)-1].NodeID)
	if err != nil {
		return nil, err
	}

	return Unmarshal(data)
}
