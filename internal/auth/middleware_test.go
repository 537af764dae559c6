package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct{ err error }

func (s stubChecker) CheckSession(context.Context, Claims) error { return s.err }

type stubAuthorizer map[string][]string

func (s stubAuthorizer) has(role, p string) bool {
	for _, q := range s[role] {
		if q == p {
			return true
		}
	}
	return false
}

func (s stubAuthorizer) HasPermission(_ context.Context, role, p string) bool { return s.has(role, p) }

func (s stubAuthorizer) HasAnyPermission(_ context.Context, role string, ps []string) bool {
	for _, p := range ps {
		if s.has(role, p) {
			return true
		}
	}
	return false
}

func (s stubAuthorizer) HasAllPermissions(_ context.Context, role string, ps []string) bool {
	if len(ps) == 0 {
		return false
	}
	for _, p := range ps {
		if !s.has(role, p) {
			return false
		}
	}
	return true
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRequireSession(t *testing.T) {
	codec, _ := newTestCodec()
	token, _, err := codec.Issue(sampleClaims())
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		checker SessionChecker
		want    int
	}{
		{"no token", "", nil, http.StatusUnauthorized},
		{"bad token", "nope", nil, http.StatusUnauthorized},
		{"valid", token, nil, http.StatusNoContent},
		{"valid and live", token, stubChecker{}, http.StatusNoContent},
		{"revoked", token, stubChecker{err: ErrSessionRevoked}, http.StatusUnauthorized},
		{"stale", token, stubChecker{err: ErrStaleSession}, http.StatusUnauthorized},
		{"store down", token, stubChecker{err: errors.New("db gone")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireSession(codec, tt.checker, nil)(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequirePermissions(t *testing.T) {
	authz := stubAuthorizer{"user": {"view_dashboard", "edit_settings"}}
	withRole := func(role string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(WithClaims(req.Context(), Claims{ID: "u1", Role: role}))
	}

	tests := []struct {
		name string
		mw   func(http.Handler) http.Handler
		req  *http.Request
		want int
	}{
		{"single allowed", RequirePermission(authz, "view_dashboard"), withRole("user"), http.StatusNoContent},
		{"single denied", RequirePermission(authz, "manage_roles"), withRole("user"), http.StatusForbidden},
		{"any allowed", RequireAny(authz, "manage_users", "view_dashboard"), withRole("user"), http.StatusNoContent},
		{"all denied", RequireAll(authz, "manage_users", "view_dashboard"), withRole("user"), http.StatusForbidden},
		{"all allowed", RequireAll(authz, "edit_settings", "view_dashboard"), withRole("user"), http.StatusNoContent},
		{"unknown role", RequirePermission(authz, "view_dashboard"), withRole("ghost"), http.StatusForbidden},
		{"no principal", RequirePermission(authz, "view_dashboard"), httptest.NewRequest(http.MethodGet, "/", nil), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.mw(okHandler).ServeHTTP(rec, tt.req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword(hash, ""))
	assert.False(t, CheckPassword("", "correct horse"))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrPasswordRequired)
}
