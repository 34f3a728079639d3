package identity

import (
	"time"

	id "motormint/pkg/domain"
)

// Identity is the single off-chain record for one wallet. NormalizedWallet is
// the only lookup key; WalletAddress preserves whatever casing the owner first
// supplied, for display.
type Identity struct {
	ID               id.IdentityID
	WalletAddress    string
	NormalizedWallet string
	Username         string
	DisplayName      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastLogin        *time.Time
}
