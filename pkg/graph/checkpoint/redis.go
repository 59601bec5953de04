package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists checkpoints to Redis.
// Use it when several processes serve turns for the same thread space.
// Each thread maps to one hash keyed by node ID; a companion counter key
// provides monotonic per-thread sequence numbers.
type RedisStore struct {
	client *redis.Client
	prefix string
	mu     sync.RWMutex
	closed bool
}

// redisEnvelope wraps checkpoint bytes with store-level ordering metadata.
type redisEnvelope struct {
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// NewRedisStore creates a Redis checkpoint store on an existing client.
// The store takes ownership of the client: Close() closes it.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "agentgraph:cp"
	}
	return &RedisStore{client: client, prefix: keyPrefix}
}

func (r *RedisStore) hashKey(threadID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, threadID)
}

func (r *RedisStore) seqKey(threadID string) string {
	return fmt.Sprintf("%s:%s:seq", r.prefix, threadID)
}

// Save implements Store.
func (r *RedisStore) Save(threadID, nodeID string, data []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrStoreClosed
	}

	ctx := context.Background()
	seq, err := r.client.Incr(ctx, r.seqKey(threadID)).Result()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	env := redisEnvelope{
		Sequence:  int(seq),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := r.client.HSet(ctx, r.hashKey(threadID), nodeID, payload).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (r *RedisStore) Load(threadID, nodeID string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrStoreClosed
	}

	payload, err := r.client.HGet(context.Background(), r.hashKey(threadID), nodeID).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	var env redisEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env.Data, nil
}

// List implements Store.
func (r *RedisStore) List(threadID string) ([]Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrStoreClosed
	}

	entries, err := r.client.HGetAll(context.Background(), r.hashKey(threadID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for nodeID, payload := range entries {
		var env redisEnvelope
		if err := json.Unmarshal([]byte(payload), &env); err != nil {
			return nil, fmt.Errorf("unmarshal envelope for node %s: %w", nodeID, err)
		}
		infos = append(infos, Info{
			ThreadID:  threadID,
			NodeID:    nodeID,
			Sequence:  env.Sequence,
			Timestamp: env.Timestamp,
			Size:      int64(len(env.Data)),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Sequence < infos[j].Sequence
	})

	return infos, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(threadID, nodeID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrStoreClosed
	}

	if err := r.client.HDel(context.Background(), r.hashKey(threadID), nodeID).Err(); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// DeleteThread implements Store.
func (r *RedisStore) DeleteThread(threadID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrStoreClosed
	}

	if err := r.client.Del(context.Background(), r.hashKey(threadID), r.seqKey(threadID)).Err(); err != nil {
		return fmt.Errorf("delete thread checkpoints: %w", err)
	}
	return nil
}

// Close implements Store.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	return r.client.Close()
}
