package identity

import (
	"context"
	"time"

	id "motormint/pkg/domain"
)

// Store persists identities keyed by normalized wallet. The unique constraint
// on normalized_wallet is the source of truth for at-most-one identity per
// wallet; Create surfaces a collision as sentinel.ErrConflict so the service
// can degrade a lost race to a re-read.
type Store interface {
	Create(ctx context.Context, identity *Identity) error
	FindByWallet(ctx context.Context, normalizedWallet string) (*Identity, error)
	FindByID(ctx context.Context, identityID id.IdentityID) (*Identity, error)
	TouchLogin(ctx context.Context, identityID id.IdentityID, at time.Time) error
}
