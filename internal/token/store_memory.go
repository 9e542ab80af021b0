package token

import (
	"context"
	"sync"

	"gatekeeper/pkg/platform/sentinel"
)

// InMemoryStore keeps pending tokens in a map. It intentionally favors clarity
// over performance and is the store of choice for unit tests; production uses
// the durable implementations so tokens survive restarts.
type InMemoryStore struct {
	mu     sync.Mutex
	tokens map[string]Token
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]Token)}
}

func (s *InMemoryStore) Save(_ context.Context, t Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.Token] = t
	return nil
}

func (s *InMemoryStore) ResolveAndInvalidate(_ context.Context, token string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return Token{}, sentinel.ErrNotFound
	}
	delete(s.tokens, token)
	return t, nil
}
