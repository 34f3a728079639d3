// Package chain reads on-chain state for the reconciliation core: transaction
// receipts and registry contract calls. It is strictly read-only; nothing here
// signs or submits transactions.
package chain

import (
	"context"

	id "motormint/pkg/domain"
)

// Receipt is the subset of a mined transaction receipt the verifier consumes.
type Receipt struct {
	TxHash      id.TxHash
	Succeeded   bool
	BlockNumber uint64
}

// Reader is the port to the chain endpoint. Implementations must distinguish
// "not yet mined" from "reverted" from "does not exist":
//
//   - GetReceipt returns sentinel.ErrReceiptPending while the transaction is
//     unmined, and a Receipt with Succeeded=false for a reverted transaction.
//   - OwnerOf returns sentinel.ErrTokenAbsent when the registry call reverts
//     because no such token was minted.
//   - Transport-level failures surface as sentinel.ErrUnavailable (wrapped).
type Reader interface {
	GetReceipt(ctx context.Context, txHash id.TxHash) (Receipt, error)
	OwnerOf(ctx context.Context, tokenID id.TokenID) (string, error)
	TotalSupply(ctx context.Context) (uint64, error)
}
