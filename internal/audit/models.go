package audit

import (
	"time"

	"github.com/google/uuid"

	id "motormint/pkg/domain"
)

// Actions recorded in the mint audit trail.
const (
	ActionBlockchainMint = "blockchain_mint"
	ActionOwnerRepaired  = "owner_repaired"
)

// Entry is one append-only audit record. Entries are never updated or
// deleted; a missing entry degrades observability, not correctness.
type Entry struct {
	ID          uuid.UUID
	TokenID     id.TokenID
	Action      string
	Detail      string
	ActorWallet string
	CreatedAt   time.Time
}

