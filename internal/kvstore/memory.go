package kvstore

import (
	"context"
	"sync"

	"github.com/akulikov-dev/localchat/internal/errs"
)

// Memory is a map-backed Store. It is the session-scoped store in every
// configuration and the durable store in tests.
type Memory struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: map[string]string{}}
}

// Get returns the value stored under key.
func (s *Memory) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// Set writes value under key.
func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

// Delete removes key.
func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

var _ Store = (*Memory)(nil)
