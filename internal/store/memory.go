package store

import (
	"context"
	"sync"
)

// MemoryStore is the redisless fallback. Nothing survives a restart, which
// only costs a re-emitted read receipt on the next open.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) LastRead(_ context.Context, conversationID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[conversationID], nil
}

func (s *MemoryStore) SetLastRead(_ context.Context, conversationID, messageID string) error {
	s.mu.Lock()
	s.m[conversationID] = messageID
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
