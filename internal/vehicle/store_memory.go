package vehicle

import (
	"context"
	"sync"
	"time"

	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
)

// InMemoryStore keeps vehicle profiles in maps for unit tests and local runs,
// with the same conflict semantics as the postgres store.
type InMemoryStore struct {
	mu      sync.RWMutex
	byToken map[id.TokenID]*Profile
	byVIN   map[string]id.TokenID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byToken: make(map[id.TokenID]*Profile),
		byVIN:   make(map[string]id.TokenID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byToken[profile.TokenID]; exists {
		return ErrDuplicateToken
	}
	if _, exists := s.byVIN[profile.VIN]; exists {
		return ErrDuplicateVIN
	}
	clone := *profile
	s.byToken[profile.TokenID] = &clone
	s.byVIN[profile.VIN] = profile.TokenID
	return nil
}

func (s *InMemoryStore) FindByTokenID(_ context.Context, tokenID id.TokenID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found, ok := s.byToken[tokenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *found
	return &clone, nil
}

func (s *InMemoryStore) ListByIdentity(_ context.Context, identityID id.IdentityID) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Profile
	for _, found := range s.byToken {
		if found.IdentityID == identityID {
			clone := *found
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateOwner(_ context.Context, tokenID id.TokenID, ownerWallet string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.byToken[tokenID]
	if !ok {
		return sentinel.ErrNotFound
	}
	found.OwnerWallet = ownerWallet
	found.UpdatedAt = at
	return nil
}

// Count reports how many profiles exist; used by tests asserting that failed
// confirmations leave the store untouched.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken)
}
