package core

import (
	"context"

	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, int, error)
	GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error)
	CreateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, error)
	UpdateSalary(ctx context.Context, tenantID, employeeID string, salary decimal.Decimal) (Employee, error)
	UpdateStatus(ctx context.Context, tenantID, employeeID, status string) (Employee, error)

	ListLoans(ctx context.Context, tenantID, employeeID, status string) ([]Loan, error)
	CreateLoan(ctx context.Context, tenantID, employeeID string, installment decimal.Decimal) (Loan, error)
	GetLoan(ctx context.Context, tenantID, loanID string) (Loan, error)
	CloseLoan(ctx context.Context, tenantID, loanID string) (Loan, error)

	UpsertIntegrityScore(ctx context.Context, tenantID, employeeID string, score int) (IntegrityScore, error)
}
