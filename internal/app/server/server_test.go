package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/core"
	"hrconsole/internal/domain/core/coretest"
	"hrconsole/internal/domain/leave"
	"hrconsole/internal/domain/leave/leavetest"
	"hrconsole/internal/domain/payroll"
	"hrconsole/internal/domain/payroll/payrolltest"
	"hrconsole/internal/platform/config"
	"hrconsole/internal/platform/metrics"
	"hrconsole/internal/transport/http/handlers/handlerstest"
)

const testSecret = "test-secret"

type stubLogin struct{}

func (stubLogin) Login(context.Context, string, string) (auth.LoginResult, error) {
	return auth.LoginResult{}, auth.ErrInvalidCredentials
}

type memoryAudit struct {
	handlerstest.AuditLog
}

func (m *memoryAudit) Count(context.Context, string, audit.Filter) (int, error) {
	return len(m.Actions()), nil
}

func (m *memoryAudit) List(context.Context, string, audit.Filter, bool, int, int) ([]audit.Event, error) {
	out := []audit.Event{}
	for _, action := range m.Actions() {
		out = append(out, audit.Event{Action: action})
	}
	return out, nil
}

type testEnv struct {
	router  http.Handler
	payroll *payrolltest.Repo
	audit   *memoryAudit
}

func newTestEnv(t *testing.T, ready func(context.Context) error) testEnv {
	t.Helper()
	cfg := config.Config{
		JWTSecret:          testSecret,
		Environment:        "test",
		MaxBodyBytes:       1 << 20,
		CalcTimeout:        5 * time.Second,
		RateLimitPerMinute: 100,
		PayslipCompanyName: "Acme Ltd",
		Payroll:            config.DefaultPayrollRules(),
	}
	repo := payrolltest.New()
	log := &memoryAudit{}
	collector := metrics.New()
	router := NewRouter(cfg, Services{
		Auth:    stubLogin{},
		Core:    core.NewService(coretest.New()),
		Payroll: payroll.NewService(repo, payroll.NewRules(cfg.Payroll), payroll.WithMetrics(collector)),
		Leave:   leave.NewService(leavetest.New(), cfg.Payroll.DefaultAnnualLeaveAllowance),
		Audit:   log,
		Perms:   handlerstest.Enforcer(t),
		Metrics: collector,
		Ready:   ready,
	})
	return testEnv{router: router, payroll: repo, audit: log}
}

func bearer(t *testing.T, user auth.UserContext) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: user.UserID, TenantID: user.TenantID, Role: user.Role}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func send(env testEnv, method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t, func(context.Context) error { return nil })

	rec := send(env, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = send(env, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestEnv(t, func(context.Context) error { return errors.New("connection refused") })
	rec = send(down, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := send(env, http.MethodGet, "/api/v1/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	envl := handlerstest.Decode(t, rec, nil)
	assert.False(t, envl.Success)
	assert.Equal(t, "not_found", envl.Error.Code)

	rec = send(env, http.MethodDelete, "/healthz", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBearerTokenGatesAPI(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := send(env, http.MethodGet, "/api/v1/payroll/batches", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(env, http.MethodGet, "/api/v1/payroll/batches", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(env, http.MethodGet, "/api/v1/payroll/batches", bearer(t, handlerstest.Employee))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(env, http.MethodGet, "/api/v1/payroll/batches", bearer(t, handlerstest.HR))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCalculateThroughFullStackIsAudited(t *testing.T) {
	env := newTestEnv(t, nil)
	env.payroll.AddEmployee(handlerstest.TenantID, payroll.Employee{Name: "Ada", BasicSalary: decimal.NewFromInt(5000)})

	rec := send(env, http.MethodPost, "/api/v1/payroll/calculate", bearer(t, handlerstest.HR))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, env.audit.Actions(), "payroll.calculate")

	rec = send(env, http.MethodGet, "/api/v1/audit", bearer(t, handlerstest.HR))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(env, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot map[string]any
	handlerstest.Decode(t, rec, &snapshot)
	assert.EqualValues(t, 1, snapshot["payrollCalculationsTotal"])
}

func TestMigrationSource(t *testing.T) {
	_, dir := migrationSource("")
	assert.Equal(t, "migrations", dir)
	_, dir = migrationSource("migrations")
	assert.Equal(t, "migrations", dir)
	_, dir = migrationSource("/srv/hrconsole/sql")
	assert.Equal(t, ".", dir)
}
