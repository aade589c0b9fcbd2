// Package coretest provides an in-memory core.StoreAPI for tests.
package coretest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hrconsole/internal/domain/core"
)

type Store struct {
	mu        sync.Mutex
	seq       int
	employees map[string]tenantEmployee
	loans     map[string]tenantLoan
	scores    map[string]core.IntegrityScore
}

type tenantEmployee struct {
	tenantID string
	core.Employee
}

type tenantLoan struct {
	tenantID string
	core.Loan
}

func New() *Store {
	return &Store{
		employees: map[string]tenantEmployee{},
		loans:     map[string]tenantLoan{},
		scores:    map[string]core.IntegrityScore{},
	}
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// Score returns the stored integrity score for an employee.
func (s *Store) Score(employeeID string) (core.IntegrityScore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	score, ok := s.scores[employeeID]
	return score, ok
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string, filter core.EmployeeFilter) ([]core.Employee, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]core.Employee, 0)
	for _, emp := range s.employees {
		if emp.tenantID == tenantID && (filter.Status == "" || emp.Status == filter.Status) {
			matched = append(matched, emp.Employee)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := len(matched)
	if filter.Offset >= total {
		return []core.Employee{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEmployee(tenantID, employeeID)
}

func (s *Store) getEmployee(tenantID, employeeID string) (core.Employee, error) {
	emp, ok := s.employees[employeeID]
	if !ok || emp.tenantID != tenantID {
		return core.Employee{}, core.ErrEmployeeNotFound
	}
	return emp.Employee, nil
}

func (s *Store) CreateEmployee(ctx context.Context, tenantID string, emp core.Employee) (core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.employees {
		if existing.tenantID == tenantID && existing.Email == emp.Email {
			return core.Employee{}, core.ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	emp.ID = s.nextID("emp")
	emp.CreatedAt = now
	emp.UpdatedAt = now
	s.employees[emp.ID] = tenantEmployee{tenantID: tenantID, Employee: emp}
	return emp, nil
}

func (s *Store) UpdateSalary(ctx context.Context, tenantID, employeeID string, salary decimal.Decimal) (core.Employee, error) {
	return s.update(tenantID, employeeID, func(emp *core.Employee) {
		emp.BasicSalary = &salary
	})
}

func (s *Store) UpdateStatus(ctx context.Context, tenantID, employeeID, status string) (core.Employee, error) {
	return s.update(tenantID, employeeID, func(emp *core.Employee) {
		emp.Status = status
	})
}

func (s *Store) update(tenantID, employeeID string, fn func(*core.Employee)) (core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	emp, err := s.getEmployee(tenantID, employeeID)
	if err != nil {
		return core.Employee{}, err
	}
	fn(&emp)
	emp.UpdatedAt = time.Now().UTC()
	s.employees[employeeID] = tenantEmployee{tenantID: tenantID, Employee: emp}
	return emp, nil
}

func (s *Store) ListLoans(ctx context.Context, tenantID, employeeID, status string) ([]core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Loan, 0)
	for _, loan := range s.loans {
		if loan.tenantID != tenantID {
			continue
		}
		if (employeeID == "" || loan.EmployeeID == employeeID) && (status == "" || loan.Status == status) {
			out = append(out, loan.Loan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateLoan(ctx context.Context, tenantID, employeeID string, installment decimal.Decimal) (core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan := core.Loan{
		ID:                 s.nextID("loan"),
		EmployeeID:         employeeID,
		MonthlyInstallment: installment,
		Status:             core.LoanStatusActive,
		CreatedAt:          time.Now().UTC(),
	}
	s.loans[loan.ID] = tenantLoan{tenantID: tenantID, Loan: loan}
	return loan, nil
}

func (s *Store) GetLoan(ctx context.Context, tenantID, loanID string) (core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[loanID]
	if !ok || loan.tenantID != tenantID {
		return core.Loan{}, core.ErrLoanNotFound
	}
	return loan.Loan, nil
}

func (s *Store) CloseLoan(ctx context.Context, tenantID, loanID string) (core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[loanID]
	if !ok || loan.tenantID != tenantID || loan.Status != core.LoanStatusActive {
		return core.Loan{}, core.ErrLoanNotFound
	}
	now := time.Now().UTC()
	loan.Status = core.LoanStatusClosed
	loan.ClosedAt = &now
	s.loans[loanID] = loan
	return loan.Loan, nil
}

func (s *Store) UpsertIntegrityScore(ctx context.Context, tenantID, employeeID string, score int) (core.IntegrityScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := core.IntegrityScore{EmployeeID: employeeID, Score: score, UpdatedAt: time.Now().UTC()}
	s.scores[employeeID] = out
	return out, nil
}
