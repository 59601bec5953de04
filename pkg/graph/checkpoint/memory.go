package checkpoint

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps checkpoints in process memory.
// Intended for tests and single-shot runs; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*threadLog
	closed  bool
}

// threadLog holds one thread's checkpoints and its sequence counter.
type threadLog struct {
	entries map[string]memEntry // nodeID -> entry
	nextSeq int
}

type memEntry struct {
	data      []byte
	sequence  int
	timestamp time.Time
}

// NewMemoryStore creates an empty in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*threadLog)}
}

// Save implements Store.
func (m *MemoryStore) Save(threadID, nodeID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	log := m.threads[threadID]
	if log == nil {
		log = &threadLog{entries: make(map[string]memEntry)}
		m.threads[threadID] = log
	}
	log.nextSeq++

	// Detach from the caller's slice.
	stored := make([]byte, len(data))
	copy(stored, data)

	log.entries[nodeID] = memEntry{
		data:      stored,
		sequence:  log.nextSeq,
		timestamp: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(threadID, nodeID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	log := m.threads[threadID]
	if log == nil {
		return nil, ErrNotFound
	}
	entry, ok := log.entries[nodeID]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

// List implements Store.
func (m *MemoryStore) List(threadID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	log := m.threads[threadID]
	if log == nil {
		return nil, nil
	}

	infos := make([]Info, 0, len(log.entries))
	for nodeID, entry := range log.entries {
		infos = append(infos, Info{
			ThreadID:  threadID,
			NodeID:    nodeID,
			Sequence:  entry.sequence,
			Timestamp: entry.timestamp,
			Size:      int64(len(entry.data)),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Sequence < infos[j].Sequence })
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(threadID, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if log := m.threads[threadID]; log != nil {
		delete(log.entries, nodeID)
	}
	return nil
}

// DeleteThread implements Store.
func (m *MemoryStore) DeleteThread(threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.threads, threadID)
	return nil
}

// Close implements Store. Further calls on the store fail with ErrStoreClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.threads = nil
	return nil
}

// Len reports the total checkpoint count across all threads.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, log := range m.threads {
		n += len(log.entries)
	}
	return n
}
