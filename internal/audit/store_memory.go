package audit

import (
	"context"
	"sync"

	id "motormint/pkg/domain"
)

// InMemoryStore collects audit entries for unit tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListByToken(_ context.Context, tokenID id.TokenID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.TokenID == tokenID {
			out = append(out, e)
		}
	}
	return out, nil
}
