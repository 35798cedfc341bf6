package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claimlab/apiserver/internal/store"
	"github.com/claimlab/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users map[string]types.User
	err   error
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	if f.err != nil {
		return types.User{}, f.err
	}
	user, ok := f.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]types.User{
		"alice": {ID: 2, Username: "alice", Role: types.RoleUser, PasswordHash: "$2a$10$unused"},
		"admin": {ID: 1, Username: "admin", Role: types.RoleAdmin},
	}}
}

func TestIssuer_DemoPasswordForAnyUser(t *testing.T) {
	issuer := NewIssuer(newFakeUsers())

	for _, username := range []string{"alice", "admin"} {
		token, principal, err := issuer.Issue(context.Background(), username, DemoPassword)
		require.NoError(t, err, username)
		assert.NotEmpty(t, token)
		assert.Equal(t, username, principal.Username)
	}
}

func TestIssuer_RejectsWrongPasswordAndUnknownUser(t *testing.T) {
	issuer := NewIssuer(newFakeUsers())

	_, _, err := issuer.Issue(context.Background(), "alice", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = issuer.Issue(context.Background(), "mallory", DemoPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssuer_LookupFailureIsNotInvalidCredentials(t *testing.T) {
	issuer := NewIssuer(&fakeUsers{err: assert.AnError})

	_, _, err := issuer.Issue(context.Background(), "alice", DemoPassword)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestIssuer_TokenCarriesClaims(t *testing.T) {
	issuer := NewIssuer(newFakeUsers())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	token, _, err := issuer.Issue(context.Background(), "alice", DemoPassword)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(token, &Principal{}, func(*jwt.Token) (any, error) {
		return []byte(Secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return fixed }))
	require.NoError(t, err)
	assert.Equal(t, "HS256", parsed.Method.Alg())

	principal := parsed.Claims.(*Principal)
	assert.Equal(t, 2, principal.ID)
	assert.Equal(t, "alice", principal.Username)
	assert.Equal(t, types.RoleUser, principal.Role)
	assert.Equal(t, fixed.Unix(), principal.IssuedAt.Unix())
	assert.Equal(t, fixed.Add(24*time.Hour).Unix(), principal.ExpiresAt.Unix())
}

func TestRoleSnapshotAtIssuance(t *testing.T) {
	require.True(t, RoleSnapshotAtIssuance)

	users := newFakeUsers()
	token, _, err := NewIssuer(users).Issue(context.Background(), "alice", DemoPassword)
	require.NoError(t, err)

	promoted := users.users["alice"]
	promoted.Role = types.RoleAdmin
	users.users["alice"] = promoted

	principal, err := NewValidator().Parse(token)
	require.NoError(t, err)
	assert.Equal(t, types.RoleUser, principal.Role, "token keeps the role it was issued with")
}

func TestValidator_Principal(t *testing.T) {
	token, _, err := NewIssuer(newFakeUsers()).Issue(context.Background(), "alice", DemoPassword)
	require.NoError(t, err)
	validator := NewValidator()

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	_, err = validator.Principal(req)
	assert.ErrorIs(t, err, ErrNoToken)

	req.AddCookie(&http.Cookie{Name: CookieName, Value: ""})
	_, err = validator.Principal(req)
	assert.ErrorIs(t, err, ErrNoToken)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-jwt"})
	_, err = validator.Principal(req)
	assert.ErrorIs(t, err, ErrInvalidToken)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	principal, err := validator.Principal(req)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.Username)
}

func TestValidator_RejectsExpiredAndForeignTokens(t *testing.T) {
	validator := NewValidator()

	expired := Principal{
		ID: 2, Username: "alice", Role: types.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte(Secret))
	require.NoError(t, err)
	_, err = validator.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = validator.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rs, err := jwt.NewWithClaims(jwt.SigningMethodRS256, expired).SignedString(key)
	require.NoError(t, err)
	_, err = validator.Parse(rs)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, expired).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = validator.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionCookie(t *testing.T) {
	plain := SessionCookie("tok", false)
	assert.Equal(t, CookieName, plain.Name)
	assert.False(t, plain.HttpOnly)
	assert.False(t, plain.Secure)
	assert.Equal(t, http.SameSiteLaxMode, plain.SameSite)
	assert.Equal(t, 86400, plain.MaxAge)
	assert.Equal(t, "/", plain.Path)

	tls := SessionCookie("tok", true)
	assert.True(t, tls.Secure)
	assert.Equal(t, http.SameSiteNoneMode, tls.SameSite)

	cleared := ClearedSessionCookie(false)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestRequireSession(t *testing.T) {
	token, _, err := NewIssuer(newFakeUsers()).Issue(context.Background(), "admin", DemoPassword)
	require.NoError(t, err)

	handler := RequireSession(NewValidator(), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(principal.Username))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/claims", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Access denied. No token provided."}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/claims", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token + "x"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid token."}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/claims", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Body.String())
}
