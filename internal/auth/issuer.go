package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claimlab/apiserver/internal/store"
	"github.com/claimlab/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
)

// UserLookup is the slice of the credential store the issuer needs.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
}

// Issuer checks credentials and signs session tokens.
type Issuer struct {
	users  UserLookup
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(users UserLookup) *Issuer {
	return &Issuer{
		users:  users,
		secret: []byte(Secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

// Issue authenticates username/password and returns a signed token along
// with the principal it encodes. The stored password hash is not consulted:
// any existing user authenticates with DemoPassword.
func (i *Issuer) Issue(ctx context.Context, username, password string) (string, Principal, error) {
	user, err := i.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", Principal{}, ErrInvalidCredentials
		}
		return "", Principal{}, fmt.Errorf("lookup user: %w", err)
	}

	if password != DemoPassword {
		return "", Principal{}, ErrInvalidCredentials
	}

	now := i.now()
	principal := Principal{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, principal).SignedString(i.secret)
	if err != nil {
		return "", Principal{}, fmt.Errorf("sign token: %w", err)
	}
	return token, principal, nil
}
