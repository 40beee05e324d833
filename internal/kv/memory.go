package kv

import (
	"encoding/json"
	"sync"
	"time"
)

// MemoryBucket is an in-process Bucket. Used when no database is
// configured, and in tests.
type MemoryBucket struct {
	mu     sync.Mutex
	values map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryBucket creates an empty in-memory bucket.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{values: make(map[string]memoryEntry)}
}

// Store saves a value with the given key.
func (b *MemoryBucket) Store(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	b.mu.Lock()
	b.values[key] = e
	b.mu.Unlock()
	return nil
}

// Get retrieves a value by key.
func (b *MemoryBucket) Get(key string, dest any) (bool, error) {
	b.mu.Lock()
	e, ok := b.values[key]
	if ok && !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(b.values, key)
		ok = false
	}
	b.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(e.data, dest)
}
