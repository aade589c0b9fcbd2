// Package handlerstest holds shared helpers for HTTP handler tests.
package handlerstest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/transport/http/middleware"
)

const TenantID = "tenant-1"

var (
	HR       = auth.UserContext{UserID: "user-hr", TenantID: TenantID, Role: auth.RoleHR}
	Manager  = auth.UserContext{UserID: "user-mgr", TenantID: TenantID, Role: auth.RoleManager}
	Employee = auth.UserContext{UserID: "user-emp", TenantID: TenantID, Role: auth.RoleEmployee}
)

// EmployeeOf returns the Employee user linked to employeeID.
func EmployeeOf(employeeID string) auth.UserContext {
	user := Employee
	user.EmployeeID = employeeID
	return user
}

// AuditLog is an in-memory audit.Recorder.
type AuditLog struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *AuditLog) Record(_ context.Context, entry audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *AuditLog) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

func Enforcer(t *testing.T) *auth.Enforcer {
	t.Helper()
	e, err := auth.NewEnforcer(auth.RolePermissions)
	require.NoError(t, err)
	return e
}

// Do sends a request through h as user. A zero user sends it anonymously.
func Do(h http.Handler, method, path, body string, user auth.UserContext) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user.UserID != "" {
		req = req.WithContext(middleware.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// Decode parses the response envelope and, when dst is non-nil, its data.
func Decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
	}
	return env
}
