package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// InTx runs fn against a repository bound to a single transaction.
	InTx(ctx context.Context, fn func(Repository) error) error

	ListActiveEmployees(ctx context.Context, tenantID string) ([]Employee, error)
	EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error)
	ActiveLoanTotals(ctx context.Context, tenantID string) (map[string]decimal.Decimal, error)
	IntegrityScores(ctx context.Context, tenantID string) (map[string]int, error)

	GetOrCreateOpenBatch(ctx context.Context, tenantID, label string) (Batch, error)
	OpenBatch(ctx context.Context, tenantID string) (Batch, error)
	GetBatch(ctx context.Context, tenantID, batchID string) (Batch, error)
	ListBatches(ctx context.Context, tenantID string, limit, offset int) ([]Batch, int, error)
	UpdateBatchTotals(ctx context.Context, tenantID, batchID string, version int, totals Totals, status string) (Batch, error)
	FinalizeBatch(ctx context.Context, tenantID, batchID string, version int) (Batch, error)

	ListInputs(ctx context.Context, tenantID, batchID string) (map[string]Input, error)
	UpsertInput(ctx context.Context, tenantID, batchID string, input Input) error

	ListRecords(ctx context.Context, tenantID, batchID string) ([]Record, error)
	UpsertRecords(ctx context.Context, tenantID, batchID string, records []Record) error
	DeleteRecordsExcept(ctx context.Context, tenantID, batchID string, keepEmployeeIDs []string) error
}
