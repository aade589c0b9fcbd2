package payroll_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/payroll"
	"hrconsole/internal/domain/payroll/payrolltest"
	"hrconsole/internal/platform/lock"
	"hrconsole/internal/platform/metrics"
)

const tenantID = "7d6c3b1a-0000-4000-8000-000000000001"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock() time.Time {
	return time.Date(2026, time.March, 31, 9, 0, 0, 0, time.UTC)
}

func newService(repo *payrolltest.Repo, opts ...payroll.Option) *payroll.Service {
	opts = append([]payroll.Option{payroll.WithClock(fixedClock)}, opts...)
	return payroll.NewService(repo, payroll.DefaultRules(), opts...)
}

func recordFor(t *testing.T, records []payroll.Record, employeeID string) payroll.Record {
	t.Helper()
	for _, record := range records {
		if record.EmployeeID == employeeID {
			return record
		}
	}
	t.Fatalf("no record for employee %s", employeeID)
	return payroll.Record{}
}

func TestCalculateCreatesBatchAndRecords(t *testing.T) {
	repo := payrolltest.New()
	ada := repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("5000"), BankAccount: "DE01"})
	bob := repo.AddEmployee(tenantID, payroll.Employee{Name: "Bob", BasicSalary: dec("3000"), BankAccount: "DE02"})
	repo.AddEmployee(tenantID, payroll.Employee{Name: "Cyd"})
	repo.AddLoan(tenantID, bob, dec("250"))
	repo.SetScore(bob, 80)
	collector := metrics.New()

	svc := newService(repo, payroll.WithMetrics(collector))
	result, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)

	assert.Equal(t, payroll.BatchStatusProcessing, result.Batch.Status)
	assert.Equal(t, "2026-03-31", result.Batch.Label)
	assert.Equal(t, 2, result.Records)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "Cyd", result.Skipped[0].Name)

	detail, err := svc.BatchDetail(context.Background(), tenantID, result.Batch.ID)
	require.NoError(t, err)
	adaRecord := recordFor(t, detail.Records, ada)
	assert.True(t, dec("1000").Equal(adaRecord.Allowances), "default score earns the bonus")
	assert.True(t, dec("6000").Equal(adaRecord.NetSalary))
	bobRecord := recordFor(t, detail.Records, bob)
	assert.Equal(t, 80, bobRecord.IntegrityScore)
	assert.True(t, dec("2750").Equal(bobRecord.NetSalary))

	assert.True(t, dec("8750").Equal(detail.Batch.TotalAmount))
	assert.Equal(t, 2, detail.Batch.EmployeeCount)

	snap := collector.Snapshot()
	assert.Equal(t, uint64(1), snap["payrollCalculationsTotal"])
	assert.Equal(t, uint64(1), snap["payrollEmployeesSkipped"])
}

func TestCalculateTotalsMatchRecords(t *testing.T) {
	repo := payrolltest.New()
	for i, salary := range []string{"1234.56", "2500", "999.99", "4100.10"} {
		id := repo.AddEmployee(tenantID, payroll.Employee{Name: string(rune('A' + i)), BasicSalary: dec(salary), BankAccount: "X"})
		repo.SetScore(id, 60+i*12)
	}
	svc := newService(repo)
	result, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)

	detail, err := svc.BatchDetail(context.Background(), tenantID, result.Batch.ID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, record := range detail.Records {
		sum = sum.Add(record.NetSalary)
		assert.True(t, record.NetSalary.Equal(record.GrossSalary.Sub(record.TotalDeductions)))
	}
	assert.True(t, sum.Equal(detail.Batch.TotalAmount))
	assert.Equal(t, len(detail.Records), detail.Batch.EmployeeCount)
}

func TestCalculateIsIdempotent(t *testing.T) {
	repo := payrolltest.New()
	id := repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("4000"), BankAccount: "DE01"})
	repo.SetScore(id, 60)
	svc := newService(repo)

	first, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)
	second, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)

	assert.Equal(t, first.Batch.ID, second.Batch.ID)
	assert.True(t, first.Batch.TotalAmount.Equal(second.Batch.TotalAmount))
	assert.Len(t, repo.Batches(tenantID), 1)

	detail, err := svc.BatchDetail(context.Background(), tenantID, second.Batch.ID)
	require.NoError(t, err)
	require.Len(t, detail.Records, 1)
	assert.True(t, dec("500").Equal(detail.Records[0].BehavioralDeductions), "penalty applied once per run")
	assert.True(t, dec("3500").Equal(detail.Records[0].NetSalary))
}

func TestCalculateUsesStoredInputs(t *testing.T) {
	repo := payrolltest.New()
	id := repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("5000"), BankAccount: "DE01"})
	repo.SetScore(id, 80)
	svc := newService(repo)

	first, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)
	_, err = svc.SetInput(context.Background(), tenantID, first.Batch.ID, payroll.Input{
		EmployeeID:           id,
		OvertimeHours:        dec("10"),
		Allowances:           dec("200"),
		BehavioralDeductions: dec("50"),
	})
	require.NoError(t, err)

	second, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)
	assert.True(t, dec("5618.75").Equal(second.Batch.TotalAmount), second.Batch.TotalAmount.String())
}

func TestCalculateFlagsNegativeNetAndMissingBank(t *testing.T) {
	repo := payrolltest.New()
	id := repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("1000")})
	repo.AddLoan(tenantID, id, dec("1800"))
	repo.AddLoan(tenantID, id, dec("400"))
	repo.SetScore(id, 80)
	svc := newService(repo)

	result, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Warnings)

	detail, err := svc.BatchDetail(context.Background(), tenantID, result.Batch.ID)
	require.NoError(t, err)
	require.Len(t, detail.Records, 1)
	record := detail.Records[0]
	assert.True(t, dec("-1200").Equal(record.NetSalary), "negative net is persisted as computed")
	assert.ElementsMatch(t, []string{payroll.WarningMissingBank, payroll.WarningNegativeNet}, record.Warnings)
}

func TestCalculateDropsRecordsOfDeactivatedEmployees(t *testing.T) {
	repo := payrolltest.New()
	ada := repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("1000"), BankAccount: "A"})
	repo.AddEmployee(tenantID, payroll.Employee{Name: "Bob", BasicSalary: dec("2000"), BankAccount: "B"})
	svc := newService(repo)

	_, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)
	repo.Deactivate(ada)
	result, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Records)
	assert.True(t, dec("3000").Equal(result.Batch.TotalAmount))
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, lock.ErrLocked
}

func TestCalculateRejectsConcurrentRun(t *testing.T) {
	repo := payrolltest.New()
	svc := newService(repo, payroll.WithLocker(busyLocker{}, time.Second))

	_, err := svc.Calculate(context.Background(), tenantID)
	assert.ErrorIs(t, err, payroll.ErrCalculationInProgress)
	assert.Empty(t, repo.Batches(tenantID))
}

func TestCalculateCancelledContextWritesNothing(t *testing.T) {
	repo := payrolltest.New()
	repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("1000")})
	svc := newService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Calculate(ctx, tenantID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, repo.Batches(tenantID))
}

func TestCalculateRollsBackOnWriteFailure(t *testing.T) {
	repo := payrolltest.New()
	repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("1000")})
	boom := errors.New("disk full")
	repo.FailOn("UpsertRecords", boom)
	collector := metrics.New()
	svc := newService(repo, payroll.WithMetrics(collector))

	_, err := svc.Calculate(context.Background(), tenantID)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, repo.Batches(tenantID), "batch creation rolled back")
	assert.Equal(t, uint64(1), collector.Snapshot()["payrollCalculationErrors"])
}

func TestCalculateSurfacesBatchConflict(t *testing.T) {
	repo := payrolltest.New()
	repo.FailOn("UpdateBatchTotals", payroll.ErrBatchConflict)
	svc := newService(repo)

	_, err := svc.Calculate(context.Background(), tenantID)
	assert.ErrorIs(t, err, payroll.ErrBatchConflict)
}

func TestConcurrentCalculationsShareOneOpenBatch(t *testing.T) {
	repo := payrolltest.New()
	repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("1000"), BankAccount: "A"})
	svc := newService(repo)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Calculate(context.Background(), tenantID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	open := 0
	for _, batch := range repo.Batches(tenantID) {
		if batch.Open() {
			open++
		}
	}
	assert.Equal(t, 1, open)
}

func TestFinalizeLifecycle(t *testing.T) {
	repo := payrolltest.New()
	svc := newService(repo)
	ctx := context.Background()

	empty, err := svc.Calculate(ctx, tenantID)
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, tenantID, empty.Batch.ID)
	assert.ErrorIs(t, err, payroll.ErrFinalizeNoRecords)

	id := repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("1000"), BankAccount: "A"})
	calculated, err := svc.Calculate(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, empty.Batch.ID, calculated.Batch.ID)

	finalized, err := svc.Finalize(ctx, tenantID, calculated.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchStatusFinalized, finalized.Status)
	require.NotNil(t, finalized.FinalizedAt)

	_, err = svc.Finalize(ctx, tenantID, calculated.Batch.ID)
	assert.ErrorIs(t, err, payroll.ErrBatchFinalized)
	_, err = svc.SetInput(ctx, tenantID, calculated.Batch.ID, payroll.Input{EmployeeID: id, OvertimeHours: dec("1")})
	assert.ErrorIs(t, err, payroll.ErrBatchFinalized)

	_, err = svc.OpenBatch(ctx, tenantID)
	assert.ErrorIs(t, err, payroll.ErrNoOpenBatch)

	next, err := svc.Calculate(ctx, tenantID)
	require.NoError(t, err)
	assert.NotEqual(t, calculated.Batch.ID, next.Batch.ID)
	assert.Len(t, repo.Batches(tenantID), 2)
}

func TestFinalizeRequiresCalculatedBatch(t *testing.T) {
	repo := payrolltest.New()
	svc := newService(repo)

	batch, err := repo.GetOrCreateOpenBatch(context.Background(), tenantID, "draft")
	require.NoError(t, err)
	_, err = svc.Finalize(context.Background(), tenantID, batch.ID)
	assert.ErrorIs(t, err, payroll.ErrFinalizeInvalidState)

	_, err = svc.Finalize(context.Background(), tenantID, "missing")
	assert.ErrorIs(t, err, payroll.ErrBatchNotFound)
}

func TestSetInputValidation(t *testing.T) {
	repo := payrolltest.New()
	svc := newService(repo)
	batch, err := repo.GetOrCreateOpenBatch(context.Background(), tenantID, "draft")
	require.NoError(t, err)

	_, err = svc.SetInput(context.Background(), tenantID, batch.ID, payroll.Input{EmployeeID: "x", OvertimeHours: dec("-1")})
	assert.ErrorIs(t, err, payroll.ErrNegativeInput)

	_, err = svc.SetInput(context.Background(), tenantID, batch.ID, payroll.Input{EmployeeID: "unknown"})
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestListInputsOrderedByEmployee(t *testing.T) {
	repo := payrolltest.New()
	svc := newService(repo)
	var ids []string
	for _, name := range []string{"Cy", "Ada", "Bo", "Di", "Ed"} {
		id := repo.AddEmployee(tenantID, payroll.Employee{Name: name, BasicSalary: dec("1000")})
		ids = append(ids, id)
	}
	batch, err := repo.GetOrCreateOpenBatch(context.Background(), tenantID, "draft")
	require.NoError(t, err)
	for _, id := range ids {
		_, err := svc.SetInput(context.Background(), tenantID, batch.ID, payroll.Input{EmployeeID: id, OvertimeHours: dec("1")})
		require.NoError(t, err)
	}
	sort.Strings(ids)

	for i := 0; i < 5; i++ {
		inputs, err := svc.ListInputs(context.Background(), tenantID, batch.ID)
		require.NoError(t, err)
		got := make([]string, 0, len(inputs))
		for _, input := range inputs {
			got = append(got, input.EmployeeID)
		}
		assert.Equal(t, ids, got)
	}
}

func TestExportAndPayslip(t *testing.T) {
	repo := payrolltest.New()
	id := repo.AddEmployee(tenantID, payroll.Employee{Name: "Ada", BasicSalary: dec("1000"), BankAccount: "A", TaxID: "T-1"})
	svc := newService(repo)
	result, err := svc.Calculate(context.Background(), tenantID)
	require.NoError(t, err)

	xlsx, err := svc.ExportRegister(context.Background(), tenantID, result.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), xlsx[:2])

	pdf, err := svc.Payslip(context.Background(), tenantID, result.Batch.ID, id, "Acme")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), pdf[:4])

	_, err = svc.Payslip(context.Background(), tenantID, result.Batch.ID, "nobody", "Acme")
	assert.ErrorIs(t, err, payroll.ErrRecordNotFound)
}
