package chain

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "motormint/pkg/domain"
)

const receiptKeyPrefix = "chain:receipt:"

// CachedReader fronts a Reader with a Redis receipt cache. Only mined
// receipts are cached: once mined they are immutable facts, while a pending
// lookup must always hit the chain again so retries can observe the mine.
// Ownership reads are never cached; owners change.
//
// A broken cache degrades to direct reads rather than failing verification.
type CachedReader struct {
	next   Reader
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedReader wraps next with a receipt cache.
func NewCachedReader(next Reader, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedReader {
	return &CachedReader{next: next, client: client, ttl: ttl, logger: logger}
}

type cachedReceipt struct {
	Succeeded   bool   `json:"succeeded"`
	BlockNumber uint64 `json:"block_number"`
}

func (c *CachedReader) GetReceipt(ctx context.Context, txHash id.TxHash) (Receipt, error) {
	key := receiptKeyPrefix + txHash.String()

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var entry cachedReceipt
		if err := json.Unmarshal([]byte(raw), &entry); err == nil {
			return Receipt{TxHash: txHash, Succeeded: entry.Succeeded, BlockNumber: entry.BlockNumber}, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cached receipt", "tx_hash", txHash)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "receipt cache read failed", "tx_hash", txHash, "error", err)
	}

	receipt, err := c.next.GetReceipt(ctx, txHash)
	if err != nil {
		return Receipt{}, err
	}

	encoded, err := json.Marshal(cachedReceipt{Succeeded: receipt.Succeeded, BlockNumber: receipt.BlockNumber})
	if err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "receipt cache write failed", "tx_hash", txHash, "error", err)
		}
	}
	return receipt, nil
}

func (c *CachedReader) OwnerOf(ctx context.Context, tokenID id.TokenID) (string, error) {
	return c.next.OwnerOf(ctx, tokenID)
}

func (c *CachedReader) TotalSupply(ctx context.Context) (uint64, error) {
	return c.next.TotalSupply(ctx)
}
