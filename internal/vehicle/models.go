package vehicle

import (
	"strings"
	"time"

	id "motormint/pkg/domain"
	dErrors "motormint/pkg/domain-errors"
)

// Profile mirrors one minted vehicle token off chain. TokenID is immutable
// once set; OwnerWallet is the normalized on-chain owner verified at creation
// time, a point-in-time snapshot reconciled only via explicit audits.
type Profile struct {
	ID          id.ProfileID
	TokenID     id.TokenID
	VIN         string
	OwnerWallet string
	IdentityID  id.IdentityID
	Make        string
	Model       string
	Year        int
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Input is the caller-supplied vehicle metadata for a mint confirmation,
// validated once at the boundary.
type Input struct {
	VIN         string `json:"vin"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const vinLen = 17

// Validate enforces the minimal metadata invariants before anything touches
// the chain or the store.
func (in Input) Validate() error {
	vin := strings.TrimSpace(in.VIN)
	if vin == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "vin is required")
	}
	if len(vin) != vinLen {
		return dErrors.Newf(dErrors.CodeInvalidInput, "vin must be %d characters", vinLen)
	}
	if in.Year != 0 && (in.Year < 1900 || in.Year > time.Now().Year()+1) {
		return dErrors.New(dErrors.CodeInvalidInput, "year is out of range")
	}
	return nil
}

// NormalizedVIN is the canonical uppercase VIN used for the unique key.
func (in Input) NormalizedVIN() string {
	return strings.ToUpper(strings.TrimSpace(in.VIN))
}
