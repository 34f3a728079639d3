// Package reconcile detects divergence between on-chain token ownership and
// the stored ownership snapshot. Neither side is assumed authoritative: the
// auditor reports, and rewrites the snapshot only when a repair is explicitly
// requested.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"motormint/internal/audit"
	"motormint/internal/platform/metrics"
	"motormint/internal/vehicle"
	"motormint/internal/wallet"
	id "motormint/pkg/domain"
	"motormint/pkg/platform/sentinel"
)

// ChainReader is the subset of the chain port the auditor consumes.
type ChainReader interface {
	OwnerOf(ctx context.Context, tokenID id.TokenID) (string, error)
}

// ProfileStore is the subset of the vehicle store the auditor consumes.
type ProfileStore interface {
	FindByTokenID(ctx context.Context, tokenID id.TokenID) (*vehicle.Profile, error)
	UpdateOwner(ctx context.Context, tokenID id.TokenID, ownerWallet string, at time.Time) error
}

// AuditPublisher records repair actions in the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

// Mismatch is one detected divergence. Both owners are normalized, so a
// difference is real and never an artifact of casing.
type Mismatch struct {
	TokenID      id.TokenID `json:"token_id"`
	OnChainOwner string     `json:"on_chain_owner"`
	StoredOwner  string     `json:"stored_owner"`
	DetectedAt   time.Time  `json:"detected_at"`
	Repaired     bool       `json:"repaired,omitempty"`
}

// LookupError is a per-token failure. One token's failed lookup never aborts
// the rest of the batch.
type LookupError struct {
	TokenID id.TokenID `json:"token_id"`
	Reason  string     `json:"reason"`
}

// Request selects the tokens to audit. Repair opts in to rewriting the
// stored owner to chain truth for each detected mismatch.
type Request struct {
	TokenIDs []id.TokenID
	Repair   bool
}

// Report carries confirmed mismatches and per-token lookup failures.
type Report struct {
	Mismatches []Mismatch    `json:"mismatches"`
	Errors     []LookupError `json:"errors"`
	CheckedAt  time.Time     `json:"checked_at"`
}

// Auditor fans a bounded worker pool over the token set to keep chain-reader
// load predictable.
type Auditor struct {
	reader      ChainReader
	profiles    ProfileStore
	audits      AuditPublisher
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
	clock       func() time.Time
}

const defaultConcurrency = 8

func NewAuditor(reader ChainReader, profiles ProfileStore, audits AuditPublisher, concurrency int, m *metrics.Metrics, logger *slog.Logger) *Auditor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Auditor{
		reader:      reader,
		profiles:    profiles,
		audits:      audits,
		concurrency: concurrency,
		metrics:     m,
		logger:      logger,
		clock:       time.Now,
	}
}

// Audit compares on-chain and stored owners for each token id. The returned
// error covers only batch-level failure (cancelled context); everything
// per-token lands in the report.
func (a *Auditor) Audit(ctx context.Context, req Request) (*Report, error) {
	report := &Report{CheckedAt: a.clock()}
	if len(req.TokenIDs) == 0 {
		return report, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, tokenID := range req.TokenIDs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mismatch, lookupErr := a.check(ctx, tokenID, req.Repair)

			// A failed repair returns both: the mismatch stands as detected
			// and the repair failure lands in Errors.
			mu.Lock()
			defer mu.Unlock()
			if mismatch != nil {
				report.Mismatches = append(report.Mismatches, *mismatch)
			}
			if lookupErr != nil {
				report.Errors = append(report.Errors, LookupError{TokenID: tokenID, Reason: lookupErr.Error()})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ownership audit: %w", err)
	}

	if a.metrics != nil {
		a.metrics.AddOwnershipMismatches(len(report.Mismatches))
		a.metrics.AddAuditLookupErrors(len(report.Errors))
	}
	if len(report.Mismatches) > 0 {
		a.logger.WarnContext(ctx, "ownership audit found mismatches",
			"checked", len(req.TokenIDs),
			"mismatches", len(report.Mismatches),
			"lookup_errors", len(report.Errors),
		)
	}
	return report, nil
}

func (a *Auditor) check(ctx context.Context, tokenID id.TokenID, repair bool) (*Mismatch, error) {
	stored, err := a.profiles.FindByTokenID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errors.New("no stored profile for token")
		}
		return nil, fmt.Errorf("stored owner lookup: %w", err)
	}

	onChain, err := a.reader.OwnerOf(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrTokenAbsent) {
			return nil, errors.New("token does not exist on chain")
		}
		return nil, fmt.Errorf("on-chain owner lookup: %w", err)
	}

	onChainKey, err := wallet.Normalize(onChain)
	if err != nil {
		return nil, fmt.Errorf("on-chain owner: %w", err)
	}
	storedKey, err := wallet.Normalize(stored.OwnerWallet)
	if err != nil {
		return nil, fmt.Errorf("stored owner: %w", err)
	}

	if onChainKey == storedKey {
		return nil, nil
	}

	mismatch := &Mismatch{
		TokenID:      tokenID,
		OnChainOwner: onChainKey,
		StoredOwner:  storedKey,
		DetectedAt:   a.clock(),
	}
	if repair {
		if err := a.repair(ctx, mismatch); err != nil {
			// Detection is a fact; only the rewrite failed.
			return mismatch, fmt.Errorf("repair stored owner: %w", err)
		}
		mismatch.Repaired = true
	}
	return mismatch, nil
}

// repair rewrites the stored snapshot to chain truth and records that it did.
func (a *Auditor) repair(ctx context.Context, mismatch *Mismatch) error {
	now := a.clock()
	if err := a.profiles.UpdateOwner(ctx, mismatch.TokenID, mismatch.OnChainOwner, now); err != nil {
		return err
	}
	entry := audit.Entry{
		TokenID:     mismatch.TokenID,
		Action:      audit.ActionOwnerRepaired,
		Detail:      fmt.Sprintf("stored owner %s replaced by on-chain owner %s", mismatch.StoredOwner, mismatch.OnChainOwner),
		ActorWallet: mismatch.OnChainOwner,
		CreatedAt:   now,
	}
	if err := a.audits.Emit(ctx, entry); err != nil {
		a.logger.WarnContext(ctx, "repair audit append failed", "token_id", mismatch.TokenID, "error", err)
	}
	return nil
}
