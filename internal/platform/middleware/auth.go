package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"motormint/internal/token"
	"motormint/pkg/requestcontext"
)

// SessionValidator verifies wallet session tokens.
type SessionValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// RequireAuth rejects requests without a valid Bearer session token and
// stores the authenticated identity and wallet in the context.
func RequireAuth(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || tokenString == "" {
				unauthorized(w, r, logger, "missing or malformed Authorization header")
				return
			}

			claims, err := validator.Validate(tokenString)
			if err != nil {
				unauthorized(w, r, logger, err.Error())
				return
			}

			ctx := requestcontext.WithIdentityID(r.Context(), claims.IdentityID)
			ctx = requestcontext.WithWallet(ctx, claims.Wallet)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	ctx := r.Context()
	logger.WarnContext(ctx, "unauthorized request",
		"path", r.URL.Path,
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
