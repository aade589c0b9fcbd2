package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/auth"
)

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", TenantID: "t1", Role: auth.RoleEmployee, EmployeeID: "e1"}, time.Hour)
	require.NoError(t, err)

	var got auth.UserContext
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		require.True(t, ok)
		got = user
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, auth.UserContext{UserID: "u1", TenantID: "t1", Role: auth.RoleEmployee, EmployeeID: "e1"}, got)
}

func TestAuthMiddlewareIgnoresBadTokens(t *testing.T) {
	other, err := auth.GenerateToken("other-secret", auth.Claims{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	for _, header := range []string{"", "Basic abc", "Bearer not-a-jwt", "Bearer " + other} {
		handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := GetUser(r.Context())
			assert.False(t, ok, header)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

type staticChecker struct {
	allowed bool
	err     error
}

func (c staticChecker) HasPermission(context.Context, string, string) (bool, error) {
	return c.allowed, c.err
}

func TestRequirePermission(t *testing.T) {
	cases := []struct {
		name    string
		user    *auth.UserContext
		checker staticChecker
		want    int
	}{
		{"anonymous", nil, staticChecker{allowed: true}, http.StatusUnauthorized},
		{"denied", &auth.UserContext{Role: auth.RoleEmployee}, staticChecker{}, http.StatusForbidden},
		{"checker error", &auth.UserContext{Role: auth.RoleHR}, staticChecker{err: errors.New("boom")}, http.StatusInternalServerError},
		{"allowed", &auth.UserContext{Role: auth.RoleHR}, staticChecker{allowed: true}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			RequirePermission("payroll.run", tc.checker)(noContent()).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequirePermissionWithEnforcer(t *testing.T) {
	enforcer, err := auth.NewEnforcer(auth.RolePermissions)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{Role: auth.RoleManager}))
	rec := httptest.NewRecorder()
	RequirePermission(auth.PermPayrollRun, enforcer)(noContent()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
