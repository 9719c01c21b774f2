package state

import (
	"context"
	"sync"
)

// Store is the ephemeral key-value cache independent processes use to
// coordinate (axis position, armed flag, worker pid). There is no
// locking and no compare-and-swap: concurrent writers race under
// last-writer-wins, which is acceptable at this write frequency. Not
// suitable for values needing strict ordering.
type Store interface {
	// Get returns the value for key; the boolean is false when the key
	// is absent.
	Get(ctx context.Context, key string) (Value, bool, error)
	// Set writes the value for key, replacing whatever was there.
	Set(ctx context.Context, key string, v Value) error
	// Close releases the underlying connection, if any.
	Close() error
}

// MemStore is an in-process Store for tests and mock mode. Values pass
// through the same Encode/Parse codec as the real cache so typed
// round-trip behaviour is identical.
type MemStore struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]string)}
}

func (s *MemStore) Get(_ context.Context, key string) (Value, bool, error) {
	s.mu.Lock()
	raw, ok := s.m[key]
	s.mu.Unlock()
	if !ok {
		return Value{}, false, nil
	}
	return Parse(raw), true, nil
}

func (s *MemStore) Set(_ context.Context, key string, v Value) error {
	s.mu.Lock()
	s.m[key] = v.Encode()
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Close() error {
	return nil
}
