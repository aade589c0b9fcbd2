package core

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, int, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	return s.store.ListEmployees(ctx, tenantID, filter)
}

func (s *Service) GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	return s.store.GetEmployee(ctx, tenantID, employeeID)
}

func (s *Service) CreateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, error) {
	emp.Name = strings.TrimSpace(emp.Name)
	emp.Email = strings.ToLower(strings.TrimSpace(emp.Email))
	if emp.BasicSalary != nil && !emp.BasicSalary.IsPositive() {
		return Employee{}, ErrInvalidSalary
	}
	if emp.Status == "" {
		emp.Status = EmployeeStatusActive
	}
	if !validStatus(emp.Status) {
		return Employee{}, ErrInvalidStatus
	}
	return s.store.CreateEmployee(ctx, tenantID, emp)
}

// UpdateSalary sets the monthly basic salary used by the next calculation.
func (s *Service) UpdateSalary(ctx context.Context, tenantID, employeeID string, salary decimal.Decimal) (Employee, Employee, error) {
	if !salary.IsPositive() {
		return Employee{}, Employee{}, ErrInvalidSalary
	}
	before, err := s.store.GetEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return Employee{}, Employee{}, err
	}
	after, err := s.store.UpdateSalary(ctx, tenantID, employeeID, salary)
	return before, after, err
}

// SetStatus flips an employee between active and inactive. Employees are
// never deleted.
func (s *Service) SetStatus(ctx context.Context, tenantID, employeeID, status string) (Employee, error) {
	if !validStatus(status) {
		return Employee{}, ErrInvalidStatus
	}
	return s.store.UpdateStatus(ctx, tenantID, employeeID, status)
}

func validStatus(status string) bool {
	return status == EmployeeStatusActive || status == EmployeeStatusInactive
}

func (s *Service) ListLoans(ctx context.Context, tenantID, employeeID, status string) ([]Loan, error) {
	return s.store.ListLoans(ctx, tenantID, employeeID, status)
}

func (s *Service) CreateLoan(ctx context.Context, tenantID, employeeID string, installment decimal.Decimal) (Loan, error) {
	if !installment.IsPositive() {
		return Loan{}, ErrInvalidInstallment
	}
	if _, err := s.store.GetEmployee(ctx, tenantID, employeeID); err != nil {
		return Loan{}, err
	}
	return s.store.CreateLoan(ctx, tenantID, employeeID, installment)
}

func (s *Service) CloseLoan(ctx context.Context, tenantID, loanID string) (Loan, error) {
	loan, err := s.store.CloseLoan(ctx, tenantID, loanID)
	if errors.Is(err, ErrLoanNotFound) {
		existing, getErr := s.store.GetLoan(ctx, tenantID, loanID)
		if getErr != nil {
			return Loan{}, getErr
		}
		if existing.Status == LoanStatusClosed {
			return Loan{}, ErrLoanClosed
		}
	}
	return loan, err
}

func (s *Service) SetIntegrityScore(ctx context.Context, tenantID, employeeID string, score int) (IntegrityScore, error) {
	if score < MinIntegrityScore || score > MaxIntegrityScore {
		return IntegrityScore{}, ErrInvalidScore
	}
	if _, err := s.store.GetEmployee(ctx, tenantID, employeeID); err != nil {
		return IntegrityScore{}, err
	}
	return s.store.UpsertIntegrityScore(ctx, tenantID, employeeID, score)
}
