package identity

import (
	"context"
	"sync"
	"time"

	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
)

// InMemoryStore keeps identities in a map for unit tests and local runs. It
// enforces the same conflict semantics as the postgres store.
type InMemoryStore struct {
	mu       sync.RWMutex
	byWallet map[string]*Identity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byWallet: make(map[string]*Identity)}
}

func (s *InMemoryStore) Create(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byWallet[identity.NormalizedWallet]; exists {
		return sentinel.ErrConflict
	}
	clone := *identity
	s.byWallet[identity.NormalizedWallet] = &clone
	return nil
}

func (s *InMemoryStore) FindByWallet(_ context.Context, normalizedWallet string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.byWallet[normalizedWallet]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *found
	return &clone, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, identityID id.IdentityID) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, found := range s.byWallet {
		if found.ID == identityID {
			clone := *found
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) TouchLogin(_ context.Context, identityID id.IdentityID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, found := range s.byWallet {
		if found.ID == identityID {
			found.LastLogin = &at
			found.UpdatedAt = at
			return nil
		}
	}
	return sentinel.ErrNotFound
}
