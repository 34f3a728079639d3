// Package domain holds the identifier types shared across the reconciliation
// core. Distinct types keep token ids, transaction hashes, and identity ids
// from being interchanged silently.
package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "motormint/pkg/domain-errors"
)

// IdentityID identifies an off-chain identity record.
type IdentityID uuid.UUID

func NewIdentityID() IdentityID { return IdentityID(uuid.New()) }

func (id IdentityID) String() string { return uuid.UUID(id).String() }

func (id IdentityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseIdentityID enforces the invariant that identity ids are valid,
// non-nil UUIDs at trust boundaries.
func ParseIdentityID(s string) (IdentityID, error) {
	if s == "" {
		return IdentityID{}, dErrors.New(dErrors.CodeInvalidInput, "identity id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return IdentityID{}, dErrors.New(dErrors.CodeInvalidInput, "identity id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return IdentityID{}, dErrors.New(dErrors.CodeInvalidInput, "identity id must not be nil")
	}
	return IdentityID(parsed), nil
}

// ProfileID identifies an off-chain vehicle profile record.
type ProfileID uuid.UUID

func NewProfileID() ProfileID { return ProfileID(uuid.New()) }

func (id ProfileID) String() string { return uuid.UUID(id).String() }

func (id ProfileID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseProfileID enforces the same UUID invariants as ParseIdentityID.
func ParseProfileID(s string) (ProfileID, error) {
	if s == "" {
		return ProfileID{}, dErrors.New(dErrors.CodeInvalidInput, "profile id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return ProfileID{}, dErrors.New(dErrors.CodeInvalidInput, "profile id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return ProfileID{}, dErrors.New(dErrors.CodeInvalidInput, "profile id must not be nil")
	}
	return ProfileID(parsed), nil
}

// TokenID is the on-chain token id of a registered vehicle.
type TokenID uint64

func (t TokenID) String() string { return strconv.FormatUint(uint64(t), 10) }

// ParseTokenID parses a decimal token id from an external request.
func ParseTokenID(s string) (TokenID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id is required")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "token id must be a non-negative integer")
	}
	return TokenID(v), nil
}

// TxHash is a 32-byte transaction hash in 0x-prefixed lowercase hex.
type TxHash string

const txHashHexLen = 64

func (h TxHash) String() string { return string(h) }

// ParseTxHash validates and canonicalizes a transaction hash.
func ParseTxHash(s string) (TxHash, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "transaction hash is required")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "transaction hash must be 0x-prefixed")
	}
	body := s[2:]
	if len(body) != txHashHexLen {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "transaction hash must be %d hex characters", txHashHexLen)
	}
	for _, r := range body {
		if !isHexDigit(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "transaction hash contains non-hex characters")
		}
	}
	return TxHash("0x" + strings.ToLower(body)), nil
}

func isHexDigit(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'f':
		return true
	case r >= 'A' && r <= 'F':
		return true
	}
	return false
}
