// Package domainerrors defines the typed error taxonomy exposed by the
// reconciliation core. Services translate infrastructure sentinels into these
// codes at the boundary; transport maps codes to HTTP statuses. Callers match
// on codes with HasCode instead of string comparison.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. Codes are stable API; messages are not.
type Code string

const (
	// Verification failures. These always abort mint confirmation before any
	// write.
	CodeInvalidAddress     Code = "invalid_address"
	CodeTransactionFailed  Code = "transaction_failed"
	CodeTransactionPending Code = "transaction_pending"
	CodeTokenNotFound      Code = "token_not_found"
	CodeOwnerMismatch      Code = "owner_mismatch"

	// Store conflicts. Legitimate user errors, distinguished from system
	// faults so the CRUD layer can render actionable messages.
	CodeDuplicateToken Code = "duplicate_token"
	CodeDuplicateVIN   Code = "duplicate_vin"

	// Infrastructure failures, surfaced distinctly so callers can retry.
	CodeStoreUnavailable Code = "store_unavailable"
	CodeChainUnavailable Code = "chain_unavailable"

	// Ambient codes used at the transport boundary.
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeInternal     Code = "internal"
)

// Error is a code-carrying domain error. Meta holds structured detail such as
// the expected/actual owners on an owner mismatch.
type Error struct {
	Code    Code
	Message string
	Meta    map[string]string
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an underlying cause while keeping it unwrappable.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// With records a structured detail on the error and returns it for chaining.
func (e *Error) With(key, value string) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]string)
	}
	e.Meta[key] = value
	return e
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// CodeOf extracts the domain code from an error chain, defaulting to
// CodeInternal for untyped errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MetaOf extracts structured detail from an error chain, nil if absent.
func MetaOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Meta
	}
	return nil
}

// Retryable reports whether the failure is transient: verification that is
// inconclusive right now, or infrastructure that may recover.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeTransactionPending, CodeStoreUnavailable, CodeChainUnavailable:
		return true
	}
	return false
}

// ToHTTPStatus maps codes to HTTP statuses for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidAddress, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound, CodeTokenNotFound:
		return http.StatusNotFound
	case CodeDuplicateToken, CodeDuplicateVIN:
		return http.StatusConflict
	case CodeTransactionFailed, CodeOwnerMismatch:
		return http.StatusUnprocessableEntity
	case CodeTransactionPending:
		return http.StatusAccepted
	case CodeStoreUnavailable, CodeChainUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
