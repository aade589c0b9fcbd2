package core_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/core"
	"hrconsole/internal/domain/core/coretest"
)

func TestCreateEmployeeNormalizes(t *testing.T) {
	svc := core.NewService(coretest.New())
	emp, err := svc.CreateEmployee(context.Background(), "t1", core.Employee{Name: "  Ada Lovelace ", Email: " ADA@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", emp.Name)
	assert.Equal(t, "ada@example.com", emp.Email)
	assert.Equal(t, core.EmployeeStatusActive, emp.Status)
	assert.Nil(t, emp.BasicSalary, "salary may be entered later")

	_, err = svc.CreateEmployee(context.Background(), "t1", core.Employee{Name: "Ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, core.ErrDuplicateEmail)

	zero := decimal.Zero
	_, err = svc.CreateEmployee(context.Background(), "t1", core.Employee{Name: "Bob", Email: "bob@example.com", BasicSalary: &zero})
	assert.ErrorIs(t, err, core.ErrInvalidSalary)

	_, err = svc.CreateEmployee(context.Background(), "t1", core.Employee{Name: "Cyd", Email: "cyd@example.com", Status: "retired"})
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}

func TestUpdateSalaryReturnsBeforeAndAfter(t *testing.T) {
	store := coretest.New()
	svc := core.NewService(store)
	emp, err := svc.CreateEmployee(context.Background(), "t1", core.Employee{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	before, after, err := svc.UpdateSalary(context.Background(), "t1", emp.ID, decimal.RequireFromString("4500.00"))
	require.NoError(t, err)
	assert.Nil(t, before.BasicSalary)
	require.NotNil(t, after.BasicSalary)
	assert.True(t, decimal.NewFromInt(4500).Equal(*after.BasicSalary))

	_, _, err = svc.UpdateSalary(context.Background(), "t1", emp.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, core.ErrInvalidSalary)
	_, _, err = svc.UpdateSalary(context.Background(), "t1", "missing", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, core.ErrEmployeeNotFound)
}

func TestSetStatusIsSoft(t *testing.T) {
	svc := core.NewService(coretest.New())
	emp, err := svc.CreateEmployee(context.Background(), "t1", core.Employee{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	updated, err := svc.SetStatus(context.Background(), "t1", emp.ID, core.EmployeeStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, core.EmployeeStatusInactive, updated.Status)

	all, total, err := svc.ListEmployees(context.Background(), "t1", core.EmployeeFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, all, 1)

	_, err = svc.SetStatus(context.Background(), "t1", emp.ID, "deleted")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}

func TestLoanLifecycle(t *testing.T) {
	svc := core.NewService(coretest.New())
	emp, err := svc.CreateEmployee(context.Background(), "t1", core.Employee{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateLoan(context.Background(), "t1", emp.ID, decimal.Zero)
	assert.ErrorIs(t, err, core.ErrInvalidInstallment)
	_, err = svc.CreateLoan(context.Background(), "t1", "missing", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, core.ErrEmployeeNotFound)

	loan, err := svc.CreateLoan(context.Background(), "t1", emp.ID, decimal.NewFromInt(250))
	require.NoError(t, err)
	assert.Equal(t, core.LoanStatusActive, loan.Status)

	closed, err := svc.CloseLoan(context.Background(), "t1", loan.ID)
	require.NoError(t, err)
	assert.Equal(t, core.LoanStatusClosed, closed.Status)

	_, err = svc.CloseLoan(context.Background(), "t1", loan.ID)
	assert.ErrorIs(t, err, core.ErrLoanClosed)
	_, err = svc.CloseLoan(context.Background(), "t1", "missing")
	assert.ErrorIs(t, err, core.ErrLoanNotFound)
}

func TestSetIntegrityScore(t *testing.T) {
	svc := core.NewService(coretest.New())
	emp, err := svc.CreateEmployee(context.Background(), "t1", core.Employee{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	score, err := svc.SetIntegrityScore(context.Background(), "t1", emp.ID, 74)
	require.NoError(t, err)
	assert.Equal(t, 74, score.Score)

	_, err = svc.SetIntegrityScore(context.Background(), "t1", emp.ID, 101)
	assert.ErrorIs(t, err, core.ErrInvalidScore)
	_, err = svc.SetIntegrityScore(context.Background(), "t1", emp.ID, -1)
	assert.ErrorIs(t, err, core.ErrInvalidScore)
}
