package chain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"motormint/internal/platform/metrics"
	"motormint/internal/wallet"
	id "motormint/pkg/domain"
	dErrors "motormint/pkg/domain-errors"
	"motormint/pkg/platform/sentinel"
)

// VerificationResult is the proof that a claimed mint exists on chain.
type VerificationResult struct {
	TokenID     id.TokenID
	Owner       string // normalized on-chain owner
	BlockNumber uint64
}

// Verifier confirms that a submitted transaction actually produced the
// claimed on-chain state. It is a pure read path: idempotent, side-effect
// free, and unconditional — there is no input for which verification is
// skipped.
type Verifier struct {
	reader  Reader
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewVerifier(reader Reader, m *metrics.Metrics, logger *slog.Logger) *Verifier {
	return &Verifier{reader: reader, metrics: m, logger: logger}
}

// VerifyMint checks that txHash is mined and successful and that
// ownerOf(tokenID) equals expectedOwner after normalization.
//
// A transaction that is not yet mined surfaces as CodeTransactionPending,
// which is a retryable outcome rather than a failure; callers re-invoke on
// their own schedule.
func (v *Verifier) VerifyMint(ctx context.Context, tokenID id.TokenID, txHash id.TxHash, expectedOwner string) (VerificationResult, error) {
	start := time.Now()

	expected, err := wallet.Normalize(expectedOwner)
	if err != nil {
		return VerificationResult{}, err
	}

	receipt, err := v.reader.GetReceipt(ctx, txHash)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrReceiptPending):
			v.observe("pending", start)
			return VerificationResult{}, dErrors.Wrap(dErrors.CodeTransactionPending, "transaction not yet mined", err).
				With("tx_hash", txHash.String())
		default:
			v.observe("chain_error", start)
			return VerificationResult{}, dErrors.Wrap(dErrors.CodeChainUnavailable, "fetch transaction receipt", err)
		}
	}

	if !receipt.Succeeded {
		v.observe("tx_failed", start)
		return VerificationResult{}, dErrors.New(dErrors.CodeTransactionFailed, "transaction reverted on chain").
			With("tx_hash", txHash.String())
	}

	owner, err := v.reader.OwnerOf(ctx, tokenID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrTokenAbsent):
			v.observe("token_not_found", start)
			return VerificationResult{}, dErrors.Wrap(dErrors.CodeTokenNotFound, "token does not exist on chain", err).
				With("token_id", tokenID.String())
		default:
			v.observe("chain_error", start)
			return VerificationResult{}, dErrors.Wrap(dErrors.CodeChainUnavailable, "read on-chain owner", err)
		}
	}

	// Readers normalize before returning, but the comparison key must never
	// depend on that contract holding.
	actual, err := wallet.Normalize(owner)
	if err != nil {
		v.observe("chain_error", start)
		return VerificationResult{}, dErrors.Wrap(dErrors.CodeChainUnavailable, "on-chain owner is not a valid address", err)
	}

	if actual != expected {
		v.observe("owner_mismatch", start)
		v.logger.WarnContext(ctx, "mint verification owner mismatch",
			"token_id", tokenID,
			"tx_hash", txHash,
			"expected", expected,
			"actual", actual,
		)
		return VerificationResult{}, dErrors.New(dErrors.CodeOwnerMismatch, "on-chain owner does not match claimed owner").
			With("expected", expected).
			With("actual", actual)
	}

	v.observe("verified", start)
	return VerificationResult{
		TokenID:     tokenID,
		Owner:       actual,
		BlockNumber: receipt.BlockNumber,
	}, nil
}

func (v *Verifier) observe(outcome string, start time.Time) {
	if v.metrics == nil {
		return
	}
	v.metrics.ObserveVerification(outcome, time.Since(start))
}
