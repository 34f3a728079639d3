package vehicle

import (
	"context"
	"fmt"
	"time"

	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
)

// Conflict facts surfaced by Create. Both wrap sentinel.ErrConflict; services
// distinguish which constraint fired so the caller sees DuplicateToken or
// DuplicateVIN instead of a generic failure.
var (
	ErrDuplicateToken = fmt.Errorf("%w: token id already registered", sentinel.ErrConflict)
	ErrDuplicateVIN   = fmt.Errorf("%w: vin already registered", sentinel.ErrConflict)
)

// Store persists vehicle profiles. Uniqueness of token_id and vin is enforced
// at the store layer and is the arbitration mechanism for concurrent mint
// confirmations.
type Store interface {
	Create(ctx context.Context, profile *Profile) error
	FindByTokenID(ctx context.Context, tokenID id.TokenID) (*Profile, error)
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]*Profile, error)
	UpdateOwner(ctx context.Context, tokenID id.TokenID, ownerWallet string, at time.Time) error
}
