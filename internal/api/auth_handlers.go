package api

import (
	"log/slog"
	"net/http"

	"github.com/reelworks/cinerec/internal/auth"
	"github.com/reelworks/cinerec/internal/params"
)

// AuthHandlers holds dependencies for the login flow: the token issuer and
// the bcrypt hash of the shared session password. Both are immutable, so
// the handlers are safe for concurrent use.
type AuthHandlers struct {
	authenticator *auth.Authenticator
	passwordHash  string
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(authenticator *auth.Authenticator, passwordHash string) *AuthHandlers {
	return &AuthHandlers{
		authenticator: authenticator,
		passwordHash:  passwordHash,
	}
}

// loginResponse is the success body for POST /api/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login handles POST /api/login. A correct session password yields a signed
// bearer token bound to the fixed session identity.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	payload, vErr := params.DecodeJSON(r)
	if vErr != nil {
		WriteValidationError(w, r, vErr)
		return
	}
	login, vErr := params.ValidateLogin(payload)
	if vErr != nil {
		WriteValidationError(w, r, vErr)
		return
	}

	// Non-string passwords can never match the stored hash; they fall
	// through to the same failure as a wrong password.
	candidate, _ := login.SessionPassword.(string)
	if !auth.CheckPassword(candidate, h.passwordHash) {
		WriteMessage(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Incorrect session password")
		return
	}

	token, err := h.authenticator.Issue(auth.SessionIdentity)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", "error", err)
		WriteMessage(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to issue access token")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, loginResponse{AccessToken: token})
}

// Protected handles GET /api/protected, a probe for exercising the token
// guard. The middleware has already verified the token by the time this
// runs.
func Protected(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, map[string]string{"message": "Protected"})
}

// Index handles GET /, a liveness smoke route.
func Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteMessage(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, map[string]string{"message": "Hello, World!"})
}
