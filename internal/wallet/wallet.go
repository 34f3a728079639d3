// Package wallet canonicalizes chain addresses. Every wallet-keyed lookup,
// comparison, and storage key in the core goes through Normalize; nothing else
// may compare raw address strings. Case-sensitive comparison of addresses is
// the bug class this package exists to eliminate.
package wallet

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "motormint/pkg/domain-errors"
)

const hexLen = 40

// Normalize returns the canonical lowercase form of a chain address.
//
// Input must be 0x-prefixed 40-digit hex. Mixed-case input is treated as an
// EIP-55 checksummed address and rejected when the casing does not match the
// checksum; all-lowercase and all-uppercase inputs carry no checksum and are
// accepted as-is.
func Normalize(address string) (string, error) {
	s := strings.TrimSpace(address)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidAddress, "wallet address is required")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidAddress, "wallet address must be 0x-prefixed")
	}
	body := s[2:]
	if len(body) != hexLen {
		return "", dErrors.Newf(dErrors.CodeInvalidAddress, "wallet address must be %d hex characters", hexLen)
	}
	hasUpper, hasLower := false, false
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
			hasLower = true
		case r >= 'A' && r <= 'F':
			hasUpper = true
		default:
			return "", dErrors.New(dErrors.CodeInvalidAddress, "wallet address contains non-hex characters")
		}
	}
	if hasUpper && hasLower && body != checksumBody(strings.ToLower(body)) {
		return "", dErrors.New(dErrors.CodeInvalidAddress, "wallet address failed checksum validation")
	}
	return "0x" + strings.ToLower(body), nil
}

// Checksum returns the EIP-55 checksummed rendering of an address, for
// display. The input goes through Normalize first.
func Checksum(address string) (string, error) {
	normalized, err := Normalize(address)
	if err != nil {
		return "", err
	}
	return "0x" + checksumBody(normalized[2:]), nil
}

// Short renders a truncated display form such as "0xAb12…Cd34", used for
// default display names of fresh identities.
func Short(address string) string {
	checksummed, err := Checksum(address)
	if err != nil {
		return ""
	}
	return checksummed[:6] + "…" + checksummed[len(checksummed)-4:]
}

// checksumBody uppercases the hex digits whose corresponding keccak256 nibble
// of the lowercase body is >= 8, per EIP-55. Input must already be lowercase
// 40-digit hex.
func checksumBody(lower string) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lower))
	digest := hex.EncodeToString(hash.Sum(nil))

	out := []byte(lower)
	for i := range out {
		if out[i] >= 'a' && out[i] <= 'f' && digest[i] >= '8' {
			out[i] -= 'a' - 'A'
		}
	}
	return string(out)
}
