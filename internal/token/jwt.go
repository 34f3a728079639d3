// Package token mints and validates the wallet-bound session tokens the CRUD
// layer presents on mutating calls into the core.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "motormint/pkg/domain"
	dErrors "motormint/pkg/domain-errors"
)

// Claims binds a session token to one identity and its normalized wallet.
type Claims struct {
	IdentityID string `json:"identity_id"`
	Wallet     string `json:"wallet"`
	jwt.RegisteredClaims
}

const (
	issuer     = "motormint"
	audience   = "motormint-api"
	defaultTTL = 24 * time.Hour
)

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

func NewService(signingKey string) *Service {
	return &Service{signingKey: []byte(signingKey), ttl: defaultTTL}
}

// IssueWalletSession signs a session token for a resolved identity.
func (s *Service) IssueWalletSession(identityID id.IdentityID, normalizedWallet string) (string, error) {
	now := time.Now()
	claims := Claims{
		IdentityID: identityID.String(),
		Wallet:     normalizedWallet,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  []string{audience},
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Validate parses and verifies a session token, returning its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	return claims, nil
}
