package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryDoc struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is a concurrency-safe in-memory document store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryDoc
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryDoc)}
}

func docKey(collection, key string) string {
	return collection + ":" + key
}

// Get unmarshals the document under collection/key into v.
func (s *MemoryStore) Get(_ context.Context, collection, key string, v any) error {
	s.mu.RLock()
	doc, ok := s.data[docKey(collection, key)]
	s.mu.RUnlock()

	if !ok || (!doc.expiresAt.IsZero() && time.Now().After(doc.expiresAt)) {
		return ErrNotFound
	}
	if err := json.Unmarshal(doc.data, v); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", collection, key, err)
	}
	return nil
}

// Set stores v as JSON under collection/key, overwriting any prior value.
func (s *MemoryStore) Set(_ context.Context, collection, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, key, err)
	}

	doc := memoryDoc{data: data}
	if ttl > 0 {
		doc.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.data[docKey(collection, key)] = doc
	s.mu.Unlock()
	return nil
}

// Delete removes the document under collection/key. Missing documents are
// a no-op.
func (s *MemoryStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	delete(s.data, docKey(collection, key))
	s.mu.Unlock()
	return nil
}

// Keys lists all live document keys in a collection.
func (s *MemoryStore) Keys(_ context.Context, collection string) ([]string, error) {
	prefix := collection + ":"
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k, doc := range s.data {
		if len(k) <= len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		if !doc.expiresAt.IsZero() && now.After(doc.expiresAt) {
			continue
		}
		keys = append(keys, k[len(prefix):])
	}
	return keys, nil
}
