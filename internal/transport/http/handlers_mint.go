package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"motormint/internal/transport/http/shared"
	"motormint/internal/vehicle"
	id "motormint/pkg/domain"
	dErrors "motormint/pkg/domain-errors"
	"motormint/pkg/requestcontext"
)

// MintService confirms claimed mints into vehicle profiles.
type MintService interface {
	ConfirmMint(ctx context.Context, tokenID id.TokenID, txHash id.TxHash, claimedOwner string, input vehicle.Input) (*vehicle.Profile, error)
}

// Token ids travel as decimal strings; uint64 values overflow JSON number
// precision in javascript clients.
type confirmMintRequest struct {
	TokenID string        `json:"token_id"`
	TxHash  string        `json:"tx_hash"`
	Vehicle vehicle.Input `json:"vehicle"`
}

type profileResponse struct {
	ID          string    `json:"id"`
	TokenID     string    `json:"token_id"`
	VIN         string    `json:"vin"`
	OwnerWallet string    `json:"owner_wallet"`
	IdentityID  string    `json:"identity_id"`
	Make        string    `json:"make,omitempty"`
	Model       string    `json:"model,omitempty"`
	Year        int       `json:"year,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// handleConfirmMint verifies a claimed mint on chain and creates the vehicle
// profile. The claimed owner is the authenticated session wallet, never a
// request field.
func (h *Handler) handleConfirmMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	claimedOwner := requestcontext.Wallet(ctx)
	if claimedOwner == "" {
		h.logger.ErrorContext(ctx, "wallet missing from context despite auth middleware",
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req confirmMintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	tokenID, err := id.ParseTokenID(req.TokenID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	txHash, err := id.ParseTxHash(req.TxHash)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	profile, err := h.mints.ConfirmMint(ctx, tokenID, txHash, claimedOwner, req.Vehicle)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeTransactionPending) {
			// Inconclusive, not failed. 202 tells the caller to retry.
			shared.WriteError(w, err)
			return
		}
		h.logger.WarnContext(ctx, "mint confirmation rejected",
			"request_id", requestID,
			"token_id", req.TokenID,
			"tx_hash", req.TxHash,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, profileResponse{
		ID:          profile.ID.String(),
		TokenID:     profile.TokenID.String(),
		VIN:         profile.VIN,
		OwnerWallet: profile.OwnerWallet,
		IdentityID:  profile.IdentityID.String(),
		Make:        profile.Make,
		Model:       profile.Model,
		Year:        profile.Year,
		Name:        profile.Name,
		Description: profile.Description,
		CreatedAt:   profile.CreatedAt,
	})
}
