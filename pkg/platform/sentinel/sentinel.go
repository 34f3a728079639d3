package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and chain readers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a unique constraint rejected the write
// - ErrReceiptPending: transaction not yet mined; retry later
// - ErrTokenAbsent: contract call reverted because the token does not exist
// - ErrUnavailable: store or chain endpoint temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrReceiptPending = errors.New("receipt pending")
	ErrTokenAbsent    = errors.New("token absent")
	ErrUnavailable    = errors.New("unavailable")
)
