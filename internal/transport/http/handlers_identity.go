package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"motormint/internal/identity"
	"motormint/internal/transport/http/shared"
	id "motormint/pkg/domain"
	dErrors "motormint/pkg/domain-errors"
	"motormint/pkg/requestcontext"
)

// IdentityService resolves wallet addresses to canonical identities.
type IdentityService interface {
	ResolveOrCreate(ctx context.Context, address string) (*identity.Identity, error)
}

// SessionIssuer mints wallet-bound session tokens for resolved identities.
type SessionIssuer interface {
	IssueWalletSession(identityID id.IdentityID, normalizedWallet string) (string, error)
}

type resolveIdentityRequest struct {
	WalletAddress string `json:"wallet_address"`
}

type identityResponse struct {
	ID               string     `json:"id"`
	WalletAddress    string     `json:"wallet_address"`
	NormalizedWallet string     `json:"normalized_wallet"`
	Username         string     `json:"username,omitempty"`
	DisplayName      string     `json:"display_name,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
}

type resolveIdentityResponse struct {
	Identity     identityResponse `json:"identity"`
	SessionToken string           `json:"session_token"`
}

func toIdentityResponse(ident *identity.Identity) identityResponse {
	return identityResponse{
		ID:               ident.ID.String(),
		WalletAddress:    ident.WalletAddress,
		NormalizedWallet: ident.NormalizedWallet,
		Username:         ident.Username,
		DisplayName:      ident.DisplayName,
		CreatedAt:        ident.CreatedAt,
		LastLogin:        ident.LastLogin,
	}
}

// handleResolveIdentity resolves a wallet to its identity, creating it on
// first sight, and issues a session token for subsequent mutating calls.
func (h *Handler) handleResolveIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resolveIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	ident, err := h.identities.ResolveOrCreate(ctx, req.WalletAddress)
	if err != nil {
		h.logger.WarnContext(ctx, "identity resolution failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	sessionToken, err := h.sessions.IssueWalletSession(ident.ID, ident.NormalizedWallet)
	if err != nil {
		h.logger.ErrorContext(ctx, "session token issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"identity_id", ident.ID,
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "issue session token"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, resolveIdentityResponse{
		Identity:     toIdentityResponse(ident),
		SessionToken: sessionToken,
	})
}
