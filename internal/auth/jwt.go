// Package auth provides stateless session authentication: signed expiring
// bearer tokens and bcrypt verification of the shared session password.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionIdentity is the single fixed principal the whole service
// authenticates as. There are no per-user accounts.
const SessionIdentity = "session_password"

// DefaultExpiry applies when no session expiration is configured.
const DefaultExpiry = 24 * time.Hour

// Kind discriminates the mutually exclusive authentication failures.
type Kind int

const (
	// KindMissingCredential means no token was presented at all.
	KindMissingCredential Kind = iota
	// KindBadSignature means the token's signature did not validate.
	KindBadSignature
	// KindExpired means a correctly signed token is past its expiry.
	KindExpired
)

// Error is a typed authentication failure carrying its HTTP status.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// The three failure modes, checked in order: absence, signature, expiry.
var (
	ErrMissingCredential = &Error{Kind: KindMissingCredential, Status: http.StatusUnauthorized, Message: "Missing Authorization Header"}
	ErrBadSignature      = &Error{Kind: KindBadSignature, Status: http.StatusUnprocessableEntity, Message: "Signature verification failed"}
	ErrExpired           = &Error{Kind: KindExpired, Status: http.StatusUnauthorized, Message: "Token has expired"}
)

// Authenticator issues and verifies HS256-signed session tokens. It is
// stateless: there is no server-side session table, every Verify revalidates
// the presented token against the signing secret and the clock. The secret
// and expiry are immutable after construction.
type Authenticator struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator with the given signing secret and
// token lifetime. A non-positive expiry falls back to DefaultExpiry.
func NewAuthenticator(secret string, expiry time.Duration) *Authenticator {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Authenticator{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

// Expiry returns the configured token lifetime.
func (a *Authenticator) Expiry() time.Duration { return a.expiry }

// Issue creates a token for the given identity, stamped with the current
// time and an expiry of now + the configured lifetime.
func (a *Authenticator) Issue(identity string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify validates the signature and expiry of a presented token and returns
// the identity it was issued to. A token is valid on [issued, issued+expiry)
// and invalid from the expiry instant onward. Signature failures are reported
// before expiry: a tampered token is never reported as expired.
func (a *Authenticator) Verify(tokenString string) (string, *Error) {
	if tokenString == "" {
		return "", ErrMissingCredential
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		default:
			// Malformed tokens and unexpected algorithms fail signature
			// verification as far as the caller is concerned.
			return "", ErrBadSignature
		}
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", ErrBadSignature
	}
	return claims.Subject, nil
}
