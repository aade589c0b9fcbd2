// Package leavetest provides an in-memory leave.StoreAPI for tests.
package leavetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrconsole/internal/domain/leave"
)

type requestEntry struct {
	tenantID string
	request  leave.Request
}

type Store struct {
	mu         sync.Mutex
	employees  map[string]string
	allowances map[string]int
	requests   map[string]requestEntry
	now        func() time.Time
}

func New() *Store {
	return &Store{
		employees:  map[string]string{},
		allowances: map[string]int{},
		requests:   map[string]requestEntry{},
		now:        time.Now,
	}
}

// AddEmployee registers an employee id for the tenant and returns it.
func (s *Store) AddEmployee(tenantID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.employees[id] = tenantID
	return id
}

// Seed stores a request as is, bypassing validation.
func (s *Store) Seed(tenantID string, req leave.Request) leave.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Days == 0 {
		req.Days, _ = leave.RequestedDays(req.StartDate, req.EndDate)
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}
	s.requests[req.ID] = requestEntry{tenantID: tenantID, request: req}
	return req
}

// InTx runs fn while holding the store lock for its whole duration. Writes
// are not rolled back; fn in the service writes last.
func (s *Store) InTx(ctx context.Context, fn func(leave.StoreAPI) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txStore{s: s})
}

func (s *Store) LockEmployee(ctx context.Context, tenantID, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockEmployee(tenantID, employeeID)
}

func (s *Store) lockEmployee(tenantID, employeeID string) error {
	if owner, ok := s.employees[employeeID]; !ok || owner != tenantID {
		return leave.ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) AnnualAllowance(ctx context.Context, tenantID string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.annualAllowance(tenantID)
}

func (s *Store) annualAllowance(tenantID string) (int, bool, error) {
	days, ok := s.allowances[tenantID]
	return days, ok, nil
}

func (s *Store) SetAnnualAllowance(ctx context.Context, tenantID string, days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowances[tenantID] = days
	return nil
}

func (s *Store) ListAnnualLeaves(ctx context.Context, tenantID, employeeID string, year int) ([]leave.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAnnualLeaves(tenantID, employeeID, year), nil
}

func (s *Store) listAnnualLeaves(tenantID, employeeID string, year int) []leave.Request {
	var out []leave.Request
	for _, entry := range s.requests {
		req := entry.request
		if entry.tenantID == tenantID && req.EmployeeID == employeeID && req.Type == leave.TypeAnnual && req.StartDate.Year() == year {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func (s *Store) CreateRequest(ctx context.Context, tenantID string, req leave.Request) (leave.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createRequest(tenantID, req), nil
}

func (s *Store) createRequest(tenantID string, req leave.Request) leave.Request {
	req.ID = uuid.NewString()
	req.CreatedAt = s.now()
	s.requests[req.ID] = requestEntry{tenantID: tenantID, request: req}
	return req
}

func (s *Store) GetRequest(ctx context.Context, tenantID, requestID string) (leave.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getRequest(tenantID, requestID)
}

func (s *Store) getRequest(tenantID, requestID string) (leave.Request, error) {
	entry, ok := s.requests[requestID]
	if !ok || entry.tenantID != tenantID {
		return leave.Request{}, leave.ErrRequestNotFound
	}
	return entry.request, nil
}

func (s *Store) ListRequests(ctx context.Context, tenantID string, filter leave.RequestFilter) (leave.RequestListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRequests(tenantID, filter), nil
}

func (s *Store) listRequests(tenantID string, filter leave.RequestFilter) leave.RequestListResult {
	var all []leave.Request
	for _, entry := range s.requests {
		req := entry.request
		if entry.tenantID != tenantID {
			continue
		}
		if filter.EmployeeID != "" && req.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		all = append(all, req)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	result := leave.RequestListResult{Items: []leave.Request{}, Total: len(all)}
	if filter.Offset < len(all) {
		end := filter.Offset + filter.Limit
		if end > len(all) {
			end = len(all)
		}
		result.Items = all[filter.Offset:end]
	}
	return result
}

func (s *Store) ResolveRequest(ctx context.Context, tenantID, requestID, status, resolvedBy string) (leave.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveRequest(tenantID, requestID, status, resolvedBy)
}

func (s *Store) resolveRequest(tenantID, requestID, status, resolvedBy string) (leave.Request, error) {
	req, err := s.getRequest(tenantID, requestID)
	if err != nil {
		return leave.Request{}, err
	}
	if req.Status != leave.StatusPending {
		return leave.Request{}, leave.ErrAlreadyResolved
	}
	now := s.now()
	req.Status = status
	req.ResolvedBy = resolvedBy
	req.ResolvedAt = &now
	s.requests[requestID] = requestEntry{tenantID: tenantID, request: req}
	return req, nil
}

// txStore is the view handed to InTx callbacks; the lock is already held.
type txStore struct {
	s *Store
}

func (t *txStore) InTx(ctx context.Context, fn func(leave.StoreAPI) error) error {
	return fn(t)
}

func (t *txStore) LockEmployee(ctx context.Context, tenantID, employeeID string) error {
	return t.s.lockEmployee(tenantID, employeeID)
}

func (t *txStore) AnnualAllowance(ctx context.Context, tenantID string) (int, bool, error) {
	return t.s.annualAllowance(tenantID)
}

func (t *txStore) SetAnnualAllowance(ctx context.Context, tenantID string, days int) error {
	t.s.allowances[tenantID] = days
	return nil
}

func (t *txStore) ListAnnualLeaves(ctx context.Context, tenantID, employeeID string, year int) ([]leave.Request, error) {
	return t.s.listAnnualLeaves(tenantID, employeeID, year), nil
}

func (t *txStore) CreateRequest(ctx context.Context, tenantID string, req leave.Request) (leave.Request, error) {
	return t.s.createRequest(tenantID, req), nil
}

func (t *txStore) GetRequest(ctx context.Context, tenantID, requestID string) (leave.Request, error) {
	return t.s.getRequest(tenantID, requestID)
}

func (t *txStore) ListRequests(ctx context.Context, tenantID string, filter leave.RequestFilter) (leave.RequestListResult, error) {
	return t.s.listRequests(tenantID, filter), nil
}

func (t *txStore) ResolveRequest(ctx context.Context, tenantID, requestID, status, resolvedBy string) (leave.Request, error) {
	return t.s.resolveRequest(tenantID, requestID, status, resolvedBy)
}
