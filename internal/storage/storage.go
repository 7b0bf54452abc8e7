// Package storage provides the key-value store behind user history and
// lists. Values are opaque bytes; keys are namespaced by the caller.
package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Store is a persistent key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	io.Closer
}

// MemoryStore keeps values in a map. It is the default backend and the one
// used by tests.
type MemoryStore struct {
	values map[string][]byte
	mu     sync.RWMutex
}

// NewMemory creates an empty MemoryStore
func NewMemory() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, exists := s.values[key]
	if !exists {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Keys returns every stored key
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.values))
	for k := range s.values {
		result = append(result, k)
	}
	return result
}

func (s *MemoryStore) Close() error {
	return nil
}

// Open returns the backend named by kind. dsn is a file path for sqlite and
// a connection string for postgres.
func Open(ctx context.Context, kind, dsn string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		if dsn == "" {
			dsn = "booklens.db"
		}
		return OpenSQLite(ctx, dsn)
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres store requires BOOKLENS_STORE_DSN")
		}
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store: %s", kind)
	}
}
