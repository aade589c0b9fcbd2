package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
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

func (s *Store) InTx(ctx context.Context, fn func(Repository) error) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		return fn(&Store{DB: q})
	})
}

func (s *Store) ListActiveEmployees(ctx context.Context, tenantID string) ([]Employee, error) {
	return db.RetryRead(ctx, s.DB, func(ctx context.Context) ([]Employee, error) {
		rows, err := s.DB.Query(ctx, `
    SELECT id::text, name, email, tax_id, bank_account, basic_salary::text
    FROM employees
    WHERE tenant_id = $1 AND status = 'active'
    ORDER BY name, id
  `, tenantID)
		if err != nil {
			return nil, fmt.Errorf("list active employees: %w", err)
		}
		defer rows.Close()

		var employees []Employee
		for rows.Next() {
			var row employeeRow
			if err := rows.Scan(&row.ID, &row.Name, &row.Email, &row.TaxID, &row.BankAccount, &row.BasicSalary); err != nil {
				return nil, err
			}
			employee, err := row.toEmployee()
			if err != nil {
				return nil, fmt.Errorf("employee %s: %w", row.ID, err)
			}
			employees = append(employees, employee)
		}
		return employees, rows.Err()
	})
}

func (s *Store) EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM employees WHERE tenant_id = $1 AND id::text = $2)
  `, tenantID, employeeID).Scan(&exists)
	return exists, err
}

func (s *Store) ActiveLoanTotals(ctx context.Context, tenantID string) (map[string]decimal.Decimal, error) {
	return db.RetryRead(ctx, s.DB, func(ctx context.Context) (map[string]decimal.Decimal, error) {
		rows, err := s.DB.Query(ctx, `
    SELECT employee_id::text, SUM(monthly_installment)::text
    FROM loans
    WHERE tenant_id = $1 AND status = 'ACTIVE'
    GROUP BY employee_id
  `, tenantID)
		if err != nil {
			return nil, fmt.Errorf("list loan totals: %w", err)
		}
		defer rows.Close()

		totals := map[string]decimal.Decimal{}
		for rows.Next() {
			var row loanTotalRow
			if err := rows.Scan(&row.EmployeeID, &row.Total); err != nil {
				return nil, err
			}
			if err := decodeRow(row); err != nil {
				return nil, fmt.Errorf("loans for %s: %w", row.EmployeeID, err)
			}
			totals[row.EmployeeID] = decimal.RequireFromString(row.Total)
		}
		return totals, rows.Err()
	})
}

func (s *Store) IntegrityScores(ctx context.Context, tenantID string) (map[string]int, error) {
	return db.RetryRead(ctx, s.DB, func(ctx context.Context) (map[string]int, error) {
		rows, err := s.DB.Query(ctx, `
    SELECT employee_id::text, score
    FROM integrity_scores
    WHERE tenant_id = $1
  `, tenantID)
		if err != nil {
			return nil, fmt.Errorf("list integrity scores: %w", err)
		}
		defer rows.Close()

		scores := map[string]int{}
		for rows.Next() {
			var row scoreRow
			if err := rows.Scan(&row.EmployeeID, &row.Score); err != nil {
				return nil, err
			}
			if err := decodeRow(row); err != nil {
				return nil, fmt.Errorf("integrity score for %s: %w", row.EmployeeID, err)
			}
			scores[row.EmployeeID] = row.Score
		}
		return scores, rows.Err()
	})
}

const batchColumns = `id::text, label, status, total_amount::text, employee_count, version, created_at, finalized_at`

func scanBatch(row pgx.Row) (Batch, error) {
	var raw batchRow
	if err := row.Scan(&raw.ID, &raw.Label, &raw.Status, &raw.TotalAmount, &raw.EmployeeCount, &raw.Version, &raw.CreatedAt, &raw.FinalizedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Batch{}, ErrBatchNotFound
		}
		return Batch{}, err
	}
	return raw.toBatch()
}

// GetOrCreateOpenBatch returns the tenant's open batch, creating one when
// none exists. Concurrent callers converge on the same row through the
// partial unique index on open batches.
func (s *Store) GetOrCreateOpenBatch(ctx context.Context, tenantID, label string) (Batch, error) {
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_batches (tenant_id, label, status)
    VALUES ($1, $2, $3)
    ON CONFLICT (tenant_id) WHERE status <> 'FINALIZED' DO NOTHING
  `, tenantID, label, BatchStatusDraft); err != nil {
		return Batch{}, fmt.Errorf("create open batch: %w", err)
	}
	batch, err := scanBatch(s.DB.QueryRow(ctx, `
    SELECT `+batchColumns+`
    FROM payroll_batches
    WHERE tenant_id = $1 AND status <> 'FINALIZED'
    FOR UPDATE
  `, tenantID))
	if err != nil {
		return Batch{}, fmt.Errorf("load open batch: %w", err)
	}
	return batch, nil
}

func (s *Store) OpenBatch(ctx context.Context, tenantID string) (Batch, error) {
	batch, err := db.RetryRead(ctx, s.DB, func(ctx context.Context) (Batch, error) {
		return scanBatch(s.DB.QueryRow(ctx, `
    SELECT `+batchColumns+`
    FROM payroll_batches
    WHERE tenant_id = $1 AND status <> 'FINALIZED'
  `, tenantID))
	})
	if errors.Is(err, ErrBatchNotFound) {
		return Batch{}, ErrNoOpenBatch
	}
	return batch, err
}

func (s *Store) GetBatch(ctx context.Context, tenantID, batchID string) (Batch, error) {
	return db.RetryRead(ctx, s.DB, func(ctx context.Context) (Batch, error) {
		return scanBatch(s.DB.QueryRow(ctx, `
    SELECT `+batchColumns+`
    FROM payroll_batches
    WHERE tenant_id = $1 AND id::text = $2
  `, tenantID, batchID))
	})
}

func (s *Store) ListBatches(ctx context.Context, tenantID string, limit, offset int) ([]Batch, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_batches WHERE tenant_id = $1", tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+batchColumns+`
    FROM payroll_batches
    WHERE tenant_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, 0, err
		}
		batches = append(batches, batch)
	}
	return batches, total, rows.Err()
}

// UpdateBatchTotals writes totals and status if the batch is still at
// version. A stale version yields ErrBatchConflict.
func (s *Store) UpdateBatchTotals(ctx context.Context, tenantID, batchID string, version int, totals Totals, status string) (Batch, error) {
	batch, err := scanBatch(s.DB.QueryRow(ctx, `
    UPDATE payroll_batches
    SET total_amount = $1::numeric, employee_count = $2, status = $3, version = version + 1
    WHERE tenant_id = $4 AND id::text = $5 AND version = $6 AND status <> 'FINALIZED'
    RETURNING `+batchColumns+`
  `, totals.TotalAmount.String(), totals.EmployeeCount, status, tenantID, batchID, version))
	if errors.Is(err, ErrBatchNotFound) {
		return Batch{}, ErrBatchConflict
	}
	return batch, err
}

func (s *Store) FinalizeBatch(ctx context.Context, tenantID, batchID string, version int) (Batch, error) {
	batch, err := scanBatch(s.DB.QueryRow(ctx, `
    UPDATE payroll_batches
    SET status = $1, finalized_at = now(), version = version + 1
    WHERE tenant_id = $2 AND id::text = $3 AND version = $4 AND status = $5
    RETURNING `+batchColumns+`
  `, BatchStatusFinalized, tenantID, batchID, version, BatchStatusProcessing))
	if errors.Is(err, ErrBatchNotFound) {
		return Batch{}, ErrBatchConflict
	}
	return batch, err
}

func (s *Store) ListInputs(ctx context.Context, tenantID, batchID string) (map[string]Input, error) {
	return db.RetryRead(ctx, s.DB, func(ctx context.Context) (map[string]Input, error) {
		rows, err := s.DB.Query(ctx, `
    SELECT employee_id::text, overtime_hours::text, allowances::text, behavioral_deductions::text
    FROM payroll_inputs
    WHERE tenant_id = $1 AND batch_id::text = $2
  `, tenantID, batchID)
		if err != nil {
			return nil, fmt.Errorf("list payroll inputs: %w", err)
		}
		defer rows.Close()

		inputs := map[string]Input{}
		for rows.Next() {
			var row inputRow
			if err := rows.Scan(&row.EmployeeID, &row.OvertimeHours, &row.Allowances, &row.BehavioralDeductions); err != nil {
				return nil, err
			}
			input, err := row.toInput()
			if err != nil {
				return nil, fmt.Errorf("input for %s: %w", row.EmployeeID, err)
			}
			inputs[input.EmployeeID] = input
		}
		return inputs, rows.Err()
	})
}

func (s *Store) UpsertInput(ctx context.Context, tenantID, batchID string, input Input) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_inputs (batch_id, employee_id, tenant_id, overtime_hours, allowances, behavioral_deductions)
    VALUES ($1::uuid, $2::uuid, $3, $4::numeric, $5::numeric, $6::numeric)
    ON CONFLICT (batch_id, employee_id)
    DO UPDATE SET overtime_hours = EXCLUDED.overtime_hours,
                  allowances = EXCLUDED.allowances,
                  behavioral_deductions = EXCLUDED.behavioral_deductions,
                  updated_at = now()
  `, batchID, input.EmployeeID, tenantID, input.OvertimeHours.String(), input.Allowances.String(), input.BehavioralDeductions.String())
	if err != nil {
		return fmt.Errorf("upsert payroll input: %w", err)
	}
	return nil
}

func (s *Store) ListRecords(ctx context.Context, tenantID, batchID string) ([]Record, error) {
	return db.RetryRead(ctx, s.DB, func(ctx context.Context) ([]Record, error) {
		rows, err := s.DB.Query(ctx, `
    SELECT r.id::text, r.batch_id::text, r.employee_id::text, e.name,
           r.basic_salary::text, r.overtime_hours::text, r.hourly_rate::text, r.overtime_amount::text,
           r.allowances::text, r.behavioral_deductions::text, r.loan_installments::text,
           r.total_deductions::text, r.gross_salary::text, r.net_salary::text,
           r.integrity_score, r.tax_id, r.bank_account, r.payment_status, r.warnings_json, r.updated_at
    FROM payroll_records r
    JOIN employees e ON r.employee_id = e.id
    WHERE r.tenant_id = $1 AND r.batch_id::text = $2
    ORDER BY e.name, r.employee_id
  `, tenantID, batchID)
		if err != nil {
			return nil, fmt.Errorf("list payroll records: %w", err)
		}
		defer rows.Close()

		var records []Record
		for rows.Next() {
			var row recordRow
			if err := rows.Scan(&row.ID, &row.BatchID, &row.EmployeeID, &row.EmployeeName,
				&row.BasicSalary, &row.OvertimeHours, &row.HourlyRate, &row.OvertimeAmount,
				&row.Allowances, &row.BehavioralDeductions, &row.LoanInstallments,
				&row.TotalDeductions, &row.GrossSalary, &row.NetSalary,
				&row.IntegrityScore, &row.TaxID, &row.BankAccount, &row.PaymentStatus, &row.WarningsJSON, &row.UpdatedAt); err != nil {
				return nil, err
			}
			record, err := row.toRecord()
			if err != nil {
				return nil, fmt.Errorf("record for %s: %w", row.EmployeeID, err)
			}
			records = append(records, record)
		}
		return records, rows.Err()
	})
}

// UpsertRecords writes one record per employee, replacing any earlier
// result for the same (batch, employee).
func (s *Store) UpsertRecords(ctx context.Context, tenantID, batchID string, records []Record) error {
	for _, record := range records {
		warningsJSON, err := json.Marshal(record.Warnings)
		if err != nil {
			return err
		}
		if _, err := s.DB.Exec(ctx, `
    INSERT INTO payroll_records (
      tenant_id, batch_id, employee_id, basic_salary, overtime_hours, hourly_rate, overtime_amount,
      allowances, behavioral_deductions, loan_installments, total_deductions, gross_salary, net_salary,
      integrity_score, tax_id, bank_account, payment_status, warnings_json
    )
    VALUES ($1, $2::uuid, $3::uuid, $4::numeric, $5::numeric, $6::numeric, $7::numeric,
            $8::numeric, $9::numeric, $10::numeric, $11::numeric, $12::numeric, $13::numeric,
            $14, $15, $16, $17, $18)
    ON CONFLICT (batch_id, employee_id)
    DO UPDATE SET basic_salary = EXCLUDED.basic_salary,
                  overtime_hours = EXCLUDED.overtime_hours,
                  hourly_rate = EXCLUDED.hourly_rate,
                  overtime_amount = EXCLUDED.overtime_amount,
                  allowances = EXCLUDED.allowances,
                  behavioral_deductions = EXCLUDED.behavioral_deductions,
                  loan_installments = EXCLUDED.loan_installments,
                  total_deductions = EXCLUDED.total_deductions,
                  gross_salary = EXCLUDED.gross_salary,
                  net_salary = EXCLUDED.net_salary,
                  integrity_score = EXCLUDED.integrity_score,
                  tax_id = EXCLUDED.tax_id,
                  bank_account = EXCLUDED.bank_account,
                  warnings_json = EXCLUDED.warnings_json,
                  updated_at = now()
  `, tenantID, batchID, record.EmployeeID,
			record.BasicSalary.String(), record.OvertimeHours.String(), record.HourlyRate.String(), record.OvertimeAmount.String(),
			record.Allowances.String(), record.BehavioralDeductions.String(), record.LoanInstallments.String(),
			record.TotalDeductions.String(), record.GrossSalary.String(), record.NetSalary.String(),
			record.IntegrityScore, record.TaxID, record.BankAccount, record.PaymentStatus, warningsJSON); err != nil {
			return fmt.Errorf("upsert payroll record for %s: %w", record.EmployeeID, err)
		}
	}
	return nil
}

func (s *Store) DeleteRecordsExcept(ctx context.Context, tenantID, batchID string, keepEmployeeIDs []string) error {
	if keepEmployeeIDs == nil {
		keepEmployeeIDs = []string{}
	}
	_, err := s.DB.Exec(ctx, `
    DELETE FROM payroll_records
    WHERE tenant_id = $1 AND batch_id::text = $2 AND NOT (employee_id::text = ANY($3::text[]))
  `, tenantID, batchID, keepEmployeeIDs)
	if err != nil {
		return fmt.Errorf("delete stale payroll records: %w", err)
	}
	return nil
}
