package audit

import (
	"context"

	id "motormint/pkg/domain"
)

// Store persists audit entries and queues them for publication.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByToken(ctx context.Context, tokenID id.TokenID) ([]Entry, error)
}
