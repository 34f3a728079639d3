// Package shared holds the JSON response helpers every handler uses, keeping
// the error envelope consistent across routes.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "motormint/pkg/domain-errors"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its HTTP status and envelope.
// Unknown errors collapse to an opaque 500 so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if code == dErrors.CodeInternal {
		resp.Message = "internal error"
	} else {
		resp.Message = err.Error()
		resp.Meta = dErrors.MetaOf(err)
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}
