// ABOUTME: Stable machine-readable error codes and the JSON error body writer
// ABOUTME: Every foreseeable failure is converted to one of these at the boundary

package gateway

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in the JSON error body. These are the stable,
// machine-readable contract; messages may change, codes may not.
const (
	CodeInvalidBody      = "INVALID_BODY"
	CodeJWTInvalid       = "JWT_INVALID"
	CodeEmailMismatch    = "EMAIL_MISMATCH"
	CodeUserNotAllowed   = "USER_NOT_ALLOWED"
	CodeUserSuspended    = "USER_SUSPENDED"
	CodeReplayedJTI      = "REPLAYED_JTI"
	CodeNoSession        = "NO_SESSION"
	CodeForbidden        = "FORBIDDEN"
	CodeMigrationFailed  = "MIGRATION_FAILED"
	CodeSSOHandoffFailed = "SSO_HANDOFF_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// writeError writes a structured JSON error response. The message is
// optional diagnostic detail and never carries raw internal state.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// writeJSON writes a success response body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
