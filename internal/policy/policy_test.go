package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claimlab/apiserver/internal/auth"
	"github.com/claimlab/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func TestRules_Table(t *testing.T) {
	cases := map[Operation]RowScope{
		ListClaims:       OwnOrShared,
		ReadClaim:        Any,
		CreateClaim:      Owner,
		UpdateClaim:      Owner,
		AdminListUsers:   Any,
		AdminListClaims:  Any,
		AdminDeleteClaim: Any,
		ListCategories:   Any,
		AttachReceipt:    Owner,
		ReadReceipt:      Any,
	}
	assert.Len(t, Rules, len(cases))
	for op, rows := range cases {
		assert.Equal(t, rows, For(op).Rows, string(op))
		assert.NotNil(t, For(op).Gate, string(op))
	}
}

func TestFor_UnknownOperationPanics(t *testing.T) {
	assert.Panics(t, func() { For("approve-claim") })
}

func TestAdminGate_IgnoresRole(t *testing.T) {
	assert.ErrorIs(t, AdminGate(context.Background()), ErrUnauthenticated)

	for _, role := range []string{types.RoleUser, types.RoleAdmin, "", "auditor"} {
		ctx := auth.WithPrincipal(context.Background(), auth.Principal{ID: 7, Username: "u", Role: role})
		assert.NoError(t, AdminGate(ctx), "role %q", role)
	}
}

func TestRequire(t *testing.T) {
	handler := Require(AdminListUsers)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{ID: 3, Username: "bob", Role: types.RoleUser}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRowScope_String(t *testing.T) {
	assert.Equal(t, "own-or-shared", OwnOrShared.String())
	assert.Equal(t, "RowScope(9)", RowScope(9).String())
}
