// Package api provides the HTTP handlers for the recommendation service,
// including standardized error handling.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/reelworks/cinerec/internal/middleware"
	"github.com/reelworks/cinerec/internal/params"
)

// Common error codes attached to request log lines.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeAuthFailed indicates authentication failure.
	ErrCodeAuthFailed = "auth_failed"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"

	// ErrCodeRankingFailed indicates the scoring model failed mid-ranking.
	ErrCodeRankingFailed = "ranking_failed"
)

// messageBody is the error envelope for validation and login failures:
// {"message": "..."}. Token-layer failures use {"msg": "..."} instead; see
// the middleware package.
type messageBody struct {
	Message string `json:"message"`
}

// WriteMessage writes an error response in the {"message": ...} shape,
// recording the error code for the logging middleware.
func WriteMessage(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.UpdateResponseContext(w, middleware.SetErrorCode(ctx, code))

	data, err := json.Marshal(messageBody{Message: message})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// WriteValidationError maps a params validation failure onto the wire.
func WriteValidationError(w http.ResponseWriter, r *http.Request, vErr *params.Error) {
	WriteMessage(w, r.Context(), vErr.Status, ErrCodeValidation, vErr.Message)
}

// WriteJSON writes a success response body.
func WriteJSON(w http.ResponseWriter, ctx context.Context, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// methodNotAllowed rejects requests with the wrong verb.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteMessage(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
}
