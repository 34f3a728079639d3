package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"motormint/internal/reconcile"
	"motormint/internal/transport/http/shared"
	id "motormint/pkg/domain"
	dErrors "motormint/pkg/domain-errors"
	"motormint/pkg/requestcontext"
)

// AuditService compares on-chain and stored ownership for a token batch.
type AuditService interface {
	Audit(ctx context.Context, req reconcile.Request) (*reconcile.Report, error)
}

type ownershipAuditRequest struct {
	TokenIDs []string `json:"token_ids"`
	Repair   bool     `json:"repair"`
}

const maxAuditBatch = 1000

// handleOwnershipAudit runs a reconciliation pass over the requested tokens
// and reports divergence. With repair set, stored owners are rewritten to
// chain truth.
func (h *Handler) handleOwnershipAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ownershipAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if len(req.TokenIDs) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "token_ids must not be empty"))
		return
	}
	if len(req.TokenIDs) > maxAuditBatch {
		shared.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "at most %d tokens per audit", maxAuditBatch))
		return
	}

	tokenIDs := make([]id.TokenID, 0, len(req.TokenIDs))
	for _, raw := range req.TokenIDs {
		tokenID, err := id.ParseTokenID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		tokenIDs = append(tokenIDs, tokenID)
	}

	report, err := h.audits.Audit(ctx, reconcile.Request{TokenIDs: tokenIDs, Repair: req.Repair})
	if err != nil {
		h.logger.ErrorContext(ctx, "ownership audit aborted",
			"request_id", requestcontext.RequestID(ctx),
			"tokens", len(tokenIDs),
			"error", err,
		)
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "ownership audit aborted", err))
		return
	}

	shared.WriteJSON(w, http.StatusOK, report)
}
