package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"motormint/internal/platform/metrics"
	"motormint/internal/wallet"
	id "motormint/pkg/domain"
	dErrors "motormint/pkg/domain-errors"
	"motormint/pkg/platform/sentinel"
)

// Registry owns the wallet → identity mapping. It never compares raw address
// strings: every lookup goes through wallet.Normalize, and race resolution is
// delegated to the store's uniqueness constraint rather than any in-process
// lock, so the registry stays correct when scaled across processes.
type Registry struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	clock   func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func NewRegistry(store Store, m *metrics.Metrics, logger *slog.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:   store,
		metrics: m,
		logger:  logger,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ResolveOrCreate returns the identity for a wallet, creating it on first
// sight. Subsequent resolutions update last_login. Safe under concurrent
// calls for the same wallet: a create that loses the race re-reads the row
// the winner inserted instead of erroring the caller.
func (r *Registry) ResolveOrCreate(ctx context.Context, address string) (*Identity, error) {
	normalized, err := wallet.Normalize(address)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.FindByWallet(ctx, normalized)
	switch {
	case err == nil:
		return r.touch(ctx, existing)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(dErrors.CodeStoreUnavailable, "look up identity", err)
	}

	now := r.clock()
	created := &Identity{
		ID:               id.NewIdentityID(),
		WalletAddress:    strings.TrimSpace(address),
		NormalizedWallet: normalized,
		DisplayName:      wallet.Short(normalized),
		CreatedAt:        now,
		UpdatedAt:        now,
		LastLogin:        &now,
	}

	err = r.store.Create(ctx, created)
	switch {
	case err == nil:
		if r.metrics != nil {
			r.metrics.IncIdentitiesCreated()
		}
		r.logger.InfoContext(ctx, "identity created", "identity_id", created.ID, "wallet", normalized)
		return created, nil
	case errors.Is(err, sentinel.ErrConflict):
		// Lost the create race; the winner's row is canonical.
		winner, findErr := r.store.FindByWallet(ctx, normalized)
		if findErr != nil {
			return nil, dErrors.Wrap(dErrors.CodeStoreUnavailable, "re-read identity after create race", findErr)
		}
		return r.touch(ctx, winner)
	default:
		return nil, dErrors.Wrap(dErrors.CodeStoreUnavailable, "create identity", err)
	}
}

// GetByWallet is a read-only lookup with no side effects. The boolean is
// false when no identity exists for the wallet.
func (r *Registry) GetByWallet(ctx context.Context, address string) (*Identity, bool, error) {
	normalized, err := wallet.Normalize(address)
	if err != nil {
		return nil, false, err
	}
	found, err := r.store.FindByWallet(ctx, normalized)
	switch {
	case err == nil:
		return found, true, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, false, nil
	default:
		return nil, false, dErrors.Wrap(dErrors.CodeStoreUnavailable, "look up identity", err)
	}
}

func (r *Registry) touch(ctx context.Context, found *Identity) (*Identity, error) {
	now := r.clock()
	if err := r.store.TouchLogin(ctx, found.ID, now); err != nil {
		// A stale last_login must not fail the resolution.
		r.logger.WarnContext(ctx, "update last_login failed", "identity_id", found.ID, "error", err)
		return found, nil
	}
	found.LastLogin = &now
	found.UpdatedAt = now
	return found, nil
}
