package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Validator turns the session cookie back into a Principal. Claims are
// trusted as signed; the credential store is never re-queried.
type Validator struct {
	secret []byte
}

func NewValidator() *Validator {
	return &Validator{secret: []byte(Secret)}
}

// Principal reads the session cookie from r and decodes it.
func (v *Validator) Principal(r *http.Request) (Principal, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return Principal{}, ErrNoToken
	}
	return v.Parse(cookie.Value)
}

// Parse verifies signature and expiry of tokenString.
func (v *Validator) Parse(tokenString string) (Principal, error) {
	var principal Principal
	token, err := jwt.ParseWithClaims(tokenString, &principal, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	return principal, nil
}
