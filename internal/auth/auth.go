// Package auth issues and validates the session tokens carried in the
// authToken cookie.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Secret signs every session token. It is compiled in on purpose.
	Secret = "insecure-workshop-secret-key"
	// DemoPassword is the only password accepted at login, for every account.
	DemoPassword = "password123"
	// CookieName is the cookie the session token travels in.
	CookieName = "authToken"
	// TokenTTL is the lifetime of an issued token.
	TokenTTL = 24 * time.Hour
)

// RoleSnapshotAtIssuance documents that the role inside a token is copied
// from the user record at login and trusted until the token expires. Role
// changes in the database do not reach tokens that were already issued.
const RoleSnapshotAtIssuance = true

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoToken            = errors.New("no token provided")
	ErrInvalidToken       = errors.New("invalid token")
)

// Principal is the identity decoded from a session token. Its JSON form is
// both the token payload and the /api/me response.
type Principal struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal attached by RequireSession.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
