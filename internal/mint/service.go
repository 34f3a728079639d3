// Package mint orchestrates the commit-confirm flow: a mint is trusted
// off-chain only after the chain verifier has proven it, and the audit trail
// is written best-effort after the profile exists. No partial profile is ever
// created from an unverified mint.
package mint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"motormint/internal/audit"
	"motormint/internal/chain"
	"motormint/internal/identity"
	"motormint/internal/platform/metrics"
	"motormint/internal/vehicle"
	id "motormint/pkg/domain"
	dErrors "motormint/pkg/domain-errors"
	"motormint/pkg/requestcontext"
)

// Verifier proves a claimed mint against on-chain state.
type Verifier interface {
	VerifyMint(ctx context.Context, tokenID id.TokenID, txHash id.TxHash, expectedOwner string) (chain.VerificationResult, error)
}

// IdentityRegistry resolves wallet addresses to canonical identities.
type IdentityRegistry interface {
	ResolveOrCreate(ctx context.Context, address string) (*identity.Identity, error)
}

// AuditPublisher appends to the mint audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// Reconciler confirms mints into off-chain vehicle profiles.
type Reconciler struct {
	verifier   Verifier
	identities IdentityRegistry
	profiles   vehicle.Store
	audits     AuditPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	clock      func() time.Time
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func NewReconciler(
	verifier Verifier,
	identities IdentityRegistry,
	profiles vehicle.Store,
	audits AuditPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...ReconcilerOption,
) *Reconciler {
	r := &Reconciler{
		verifier:   verifier,
		identities: identities,
		profiles:   profiles,
		audits:     audits,
		metrics:    m,
		logger:     logger,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ConfirmMint verifies the claimed mint on chain and, only then, creates the
// off-chain profile exactly once.
//
// Outcomes:
//   - CodeTransactionPending: inconclusive, the caller re-invokes later.
//   - Verification failures abort before any write.
//   - CodeDuplicateToken / CodeDuplicateVIN: the store constraint fired;
//     the losing call of a concurrent confirmation sees DuplicateToken.
//   - Audit append failure is logged and swallowed; the created profile
//     stands.
func (r *Reconciler) ConfirmMint(ctx context.Context, tokenID id.TokenID, txHash id.TxHash, claimedOwner string, input vehicle.Input) (*vehicle.Profile, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	verified, err := r.verifier.VerifyMint(ctx, tokenID, txHash, claimedOwner)
	if err != nil {
		r.reject(err)
		return nil, err
	}

	// No orphaned profiles: a profile must link to a resolvable identity.
	resolved, err := r.identities.ResolveOrCreate(ctx, verified.Owner)
	if err != nil {
		r.reject(err)
		return nil, err
	}

	now := r.clock()
	profile := &vehicle.Profile{
		ID:      id.NewProfileID(),
		TokenID: tokenID,
		VIN:     input.NormalizedVIN(),
		// Always the verified on-chain owner, never the caller's claim.
		OwnerWallet: verified.Owner,
		IdentityID:  resolved.ID,
		Make:        input.Make,
		Model:       input.Model,
		Year:        input.Year,
		Name:        input.Name,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = r.profiles.Create(ctx, profile)
	switch {
	case err == nil:
	case errors.Is(err, vehicle.ErrDuplicateVIN):
		r.reject(err)
		return nil, dErrors.Wrap(dErrors.CodeDuplicateVIN, "vin already registered to another vehicle", err).
			With("vin", profile.VIN)
	case errors.Is(err, vehicle.ErrDuplicateToken):
		r.reject(err)
		return nil, dErrors.Wrap(dErrors.CodeDuplicateToken, "token already has a vehicle profile", err).
			With("token_id", tokenID.String())
	default:
		r.reject(err)
		return nil, dErrors.Wrap(dErrors.CodeStoreUnavailable, "create vehicle profile", err)
	}

	detail := fmt.Sprintf("tx %s mined in block %d", txHash, verified.BlockNumber)
	if client := clientDetail(ctx); client != "" {
		detail += " via " + client
	}
	entry := audit.Entry{
		TokenID:     tokenID,
		Action:      audit.ActionBlockchainMint,
		Detail:      detail,
		ActorWallet: verified.Owner,
		CreatedAt:   now,
	}
	if err := r.audits.Emit(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "mint audit append failed",
			"token_id", tokenID,
			"tx_hash", txHash,
			"error", err,
		)
	}

	if r.metrics != nil {
		r.metrics.IncMintsConfirmed()
	}
	r.logger.InfoContext(ctx, "mint confirmed",
		"token_id", tokenID,
		"tx_hash", txHash,
		"owner", verified.Owner,
		"vin", profile.VIN,
	)
	return profile, nil
}

// clientDetail summarizes the confirming client from request metadata so the
// audit trail records who drove the confirmation, not just the on-chain facts.
func clientDetail(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	ua := requestcontext.UserAgent(ctx)
	switch {
	case ip != "" && ua != "":
		return ip + " " + ua
	case ip != "":
		return ip
	default:
		return ua
	}
}

func (r *Reconciler) reject(err error) {
	if r.metrics == nil {
		return
	}
	// Pending is not a rejection; it is counted separately by the verifier.
	if code := dErrors.CodeOf(err); code != dErrors.CodeTransactionPending {
		r.metrics.IncMintsRejected(string(code))
	}
}
