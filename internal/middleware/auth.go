package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/reelworks/cinerec/internal/auth"
)

// authErrorBody is the token-layer error envelope: {"msg": "..."}.
type authErrorBody struct {
	Msg string `json:"msg"`
}

// writeAuthError writes a token-layer failure. The body shape is distinct
// from the validation-error envelope on purpose.
func writeAuthError(w http.ResponseWriter, r *http.Request, authErr *auth.Error) {
	ctx := SetErrorCode(r.Context(), "auth_failed")
	UpdateResponseContext(w, ctx)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(authErr.Status)
	_ = json.NewEncoder(w).Encode(authErrorBody{Msg: authErr.Message})
}

// RequireToken guards a handler with bearer-token authentication. The three
// failure modes are checked in order: no Authorization header at all, then
// signature, then expiry — each protected call re-verifies the presented
// token independently, with no server-side session state.
func RequireToken(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeAuthError(w, r, auth.ErrMissingCredential)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
			if token == "" {
				writeAuthError(w, r, auth.ErrMissingCredential)
				return
			}

			identity, authErr := authenticator.Verify(token)
			if authErr != nil {
				writeAuthError(w, r, authErr)
				return
			}

			ctx := SetIdentity(r.Context(), identity)
			UpdateResponseContext(w, ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
