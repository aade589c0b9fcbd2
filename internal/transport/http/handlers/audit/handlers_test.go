package audithandler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/transport/http/handlers/handlerstest"
)

type fakeReader struct {
	events  []audit.Event
	err     error
	filter  audit.Filter
	details bool
	limit   int
}

func (f *fakeReader) Count(_ context.Context, _ string, filter audit.Filter) (int, error) {
	f.filter = filter
	return len(f.events), f.err
}

func (f *fakeReader) List(_ context.Context, _ string, _ audit.Filter, includeDetails bool, limit, _ int) ([]audit.Event, error) {
	f.details = includeDetails
	f.limit = limit
	return f.events, f.err
}

func router(t *testing.T, reader Reader) http.Handler {
	r := chi.NewRouter()
	NewHandler(reader, handlerstest.Enforcer(t)).RegisterRoutes(r)
	return r
}

func TestListAudit(t *testing.T) {
	reader := &fakeReader{events: []audit.Event{{ID: "e1", Action: "payroll.finalize"}}}
	rec := handlerstest.Do(router(t, reader), http.MethodGet, "/audit?action=payroll.finalize&details=true&limit=500", "", handlerstest.HR)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Items []audit.Event `json:"items"`
		Total int           `json:"total"`
	}
	handlerstest.Decode(t, rec, &page)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "payroll.finalize", reader.filter.Action)
	assert.True(t, reader.details)
	assert.Equal(t, 200, reader.limit)
}

func TestListAuditRestrictedToHR(t *testing.T) {
	rec := handlerstest.Do(router(t, &fakeReader{}), http.MethodGet, "/audit", "", handlerstest.Manager)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListAuditFailure(t *testing.T) {
	rec := handlerstest.Do(router(t, &fakeReader{err: errors.New("db down")}), http.MethodGet, "/audit", "", handlerstest.HR)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
