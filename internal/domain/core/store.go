package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"hrconsole/internal/platform/db"
	"hrconsole/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeColumns = `id::text, name, email, department, basic_salary::text, hire_date, status, tax_id, bank_account, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	var salary *string
	if err := row.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Department, &salary, &emp.HireDate, &emp.Status,
		&emp.TaxID, &emp.BankAccount, &emp.CreatedAt, &emp.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, err
	}
	if salary != nil {
		parsed, err := decimal.NewFromString(*salary)
		if err != nil {
			return Employee{}, fmt.Errorf("employee %s salary: %w", emp.ID, err)
		}
		emp.BasicSalary = &parsed
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string, filter EmployeeFilter) ([]Employee, int, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	total, err := db.RetryRead(ctx, s.DB, func(ctx context.Context) (int, error) {
		var total int
		err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees "+where, args...).Scan(&total)
		return total, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT `+employeeColumns+`
    FROM employees
    %s
    ORDER BY name, id
    LIMIT $%d OFFSET $%d
  `, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	employees := []Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, emp)
	}
	return employees, total, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	return db.RetryRead(ctx, s.DB, func(ctx context.Context) (Employee, error) {
		return scanEmployee(s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1 AND id::text = $2
  `, tenantID, employeeID))
	})
}

func (s *Store) CreateEmployee(ctx context.Context, tenantID string, emp Employee) (Employee, error) {
	var salary any
	if emp.BasicSalary != nil {
		salary = emp.BasicSalary.String()
	}
	created, err := scanEmployee(s.DB.QueryRow(ctx, `
    INSERT INTO employees (tenant_id, name, email, department, basic_salary, hire_date, status, tax_id, bank_account)
    VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
    RETURNING `+employeeColumns+`
  `, tenantID, emp.Name, emp.Email, emp.Department, salary, emp.HireDate, emp.Status, emp.TaxID, emp.BankAccount))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Employee{}, ErrDuplicateEmail
		}
		return Employee{}, fmt.Errorf("insert employee: %w", err)
	}
	return created, nil
}

func (s *Store) UpdateSalary(ctx context.Context, tenantID, employeeID string, salary decimal.Decimal) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees SET basic_salary = $1::numeric, updated_at = now()
    WHERE tenant_id = $2 AND id::text = $3
    RETURNING `+employeeColumns+`
  `, salary.String(), tenantID, employeeID))
}

func (s *Store) UpdateStatus(ctx context.Context, tenantID, employeeID, status string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees SET status = $1, updated_at = now()
    WHERE tenant_id = $2 AND id::text = $3
    RETURNING `+employeeColumns+`
  `, status, tenantID, employeeID))
}

const loanColumns = `id::text, employee_id::text, monthly_installment::text, status, created_at, closed_at`

func scanLoan(row pgx.Row) (Loan, error) {
	var loan Loan
	var installment string
	if err := row.Scan(&loan.ID, &loan.EmployeeID, &installment, &loan.Status, &loan.CreatedAt, &loan.ClosedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrLoanNotFound
		}
		return Loan{}, err
	}
	parsed, err := decimal.NewFromString(installment)
	if err != nil {
		return Loan{}, fmt.Errorf("loan %s installment: %w", loan.ID, err)
	}
	loan.MonthlyInstallment = parsed
	return loan, nil
}

func (s *Store) ListLoans(ctx context.Context, tenantID, employeeID, status string) ([]Loan, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if employeeID != "" {
		args = append(args, employeeID)
		where += fmt.Sprintf(" AND employee_id::text = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+loanColumns+`
    FROM loans
    `+where+`
    ORDER BY created_at DESC
  `, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	loans := []Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func (s *Store) CreateLoan(ctx context.Context, tenantID, employeeID string, installment decimal.Decimal) (Loan, error) {
	return scanLoan(s.DB.QueryRow(ctx, `
    INSERT INTO loans (tenant_id, employee_id, monthly_installment, status)
    VALUES ($1, $2::uuid, $3::numeric, $4)
    RETURNING `+loanColumns+`
  `, tenantID, employeeID, installment.String(), LoanStatusActive))
}

func (s *Store) GetLoan(ctx context.Context, tenantID, loanID string) (Loan, error) {
	return scanLoan(s.DB.QueryRow(ctx, `
    SELECT `+loanColumns+`
    FROM loans
    WHERE tenant_id = $1 AND id::text = $2
  `, tenantID, loanID))
}

func (s *Store) CloseLoan(ctx context.Context, tenantID, loanID string) (Loan, error) {
	return scanLoan(s.DB.QueryRow(ctx, `
    UPDATE loans SET status = $1, closed_at = now()
    WHERE tenant_id = $2 AND id::text = $3 AND status = $4
    RETURNING `+loanColumns+`
  `, LoanStatusClosed, tenantID, loanID, LoanStatusActive))
}

func (s *Store) UpsertIntegrityScore(ctx context.Context, tenantID, employeeID string, score int) (IntegrityScore, error) {
	var out IntegrityScore
	err := s.DB.QueryRow(ctx, `
    INSERT INTO integrity_scores (tenant_id, employee_id, score)
    VALUES ($1, $2::uuid, $3)
    ON CONFLICT (employee_id) DO UPDATE SET score = EXCLUDED.score, updated_at = now()
    RETURNING employee_id::text, score, updated_at
  `, tenantID, employeeID, score).Scan(&out.EmployeeID, &out.Score, &out.UpdatedAt)
	if err != nil {
		return IntegrityScore{}, fmt.Errorf("upsert integrity score: %w", err)
	}
	return out, nil
}
