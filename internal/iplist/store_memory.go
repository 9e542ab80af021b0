package iplist

import (
	"context"
	"sync"

	"gatekeeper/pkg/platform/sentinel"
)

// InMemoryStore keeps directives in a map, one entry per address.
type InMemoryStore struct {
	mu         sync.RWMutex
	directives map[string]Directive
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{directives: make(map[string]Directive)}
}

func (s *InMemoryStore) Upsert(_ context.Context, d Directive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directives[d.Address] = d
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, address string) (Directive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.directives[address]; ok {
		return d, nil
	}
	return Directive{}, sentinel.ErrNotFound
}
