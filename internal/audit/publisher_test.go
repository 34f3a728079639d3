package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "motormint/pkg/domain"
)

func TestEmitFillsDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	err := publisher.Emit(ctx, Entry{
		TokenID:     id.TokenID(3),
		Action:      ActionBlockchainMint,
		ActorWallet: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
	})
	require.NoError(t, err)

	entries, err := store.ListByToken(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEqual(t, uuid.Nil, entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestEmitPreservesCallerFields(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := NewPublisher(store)

	entryID := uuid.New()
	at := time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC)

	err := publisher.Emit(ctx, Entry{
		ID:        entryID,
		TokenID:   id.TokenID(4),
		Action:    ActionOwnerRepaired,
		Detail:    "stored owner replaced",
		CreatedAt: at,
	})
	require.NoError(t, err)

	entries, err := store.ListByToken(ctx, 4)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entryID, entries[0].ID)
	assert.Equal(t, at, entries[0].CreatedAt)
	assert.Equal(t, "stored owner replaced", entries[0].Detail)
}
