package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hrconsole/internal/platform/lock"
	"hrconsole/internal/platform/logging"
	"hrconsole/internal/platform/metrics"
)

type Service struct {
	repo    Repository
	rules   Rules
	locker  lock.Locker
	lockTTL time.Duration
	metrics *metrics.Collector
	now     func() time.Time
}

type Option func(*Service)

func WithLocker(locker lock.Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, rules Rules, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		rules:   rules,
		locker:  lock.NoopLocker{},
		lockTTL: time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Rules() Rules {
	return s.rules
}

// Calculate computes a payroll record for every active employee into the
// tenant's open batch, creating the batch when needed. Records are always
// derived from the batch's stored inputs, so repeated runs give the same
// result. All writes share one transaction.
func (s *Service) Calculate(ctx context.Context, tenantID string) (CalculationResult, error) {
	if err := ctx.Err(); err != nil {
		return CalculationResult{}, err
	}
	release, err := s.locker.Acquire(ctx, calcLockPrefix+tenantID, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return CalculationResult{}, ErrCalculationInProgress
		}
		return CalculationResult{}, fmt.Errorf("acquire calculation lock: %w", err)
	}
	defer release()

	logger := logging.FromContext(ctx)
	var result CalculationResult
	err = s.repo.InTx(ctx, func(repo Repository) error {
		batch, err := repo.GetOrCreateOpenBatch(ctx, tenantID, s.now().Format(batchLabelLayout))
		if err != nil {
			return err
		}
		employees, err := repo.ListActiveEmployees(ctx, tenantID)
		if err != nil {
			return err
		}
		loans, err := repo.ActiveLoanTotals(ctx, tenantID)
		if err != nil {
			return err
		}
		scores, err := repo.IntegrityScores(ctx, tenantID)
		if err != nil {
			return err
		}
		inputs, err := repo.ListInputs(ctx, tenantID, batch.ID)
		if err != nil {
			return err
		}

		records := make([]Record, 0, len(employees))
		keep := make([]string, 0, len(employees))
		skipped := []SkippedEmployee{}
		for _, employee := range employees {
			record, err := s.buildRecord(batch.ID, employee, inputs[employee.ID], loans[employee.ID], scores)
			if errors.Is(err, ErrMissingSalary) {
				logger.Warn().Str("employeeId", employee.ID).Str("batchId", batch.ID).Msg("skipping employee without basic salary")
				skipped = append(skipped, SkippedEmployee{EmployeeID: employee.ID, Name: employee.Name, Reason: err.Error()})
				continue
			}
			if err != nil {
				return fmt.Errorf("employee %s: %w", employee.ID, err)
			}
			if record.NetSalary.IsNegative() {
				logger.Warn().
					Str("employeeId", employee.ID).
					Str("batchId", batch.ID).
					Str("netSalary", record.NetSalary.String()).
					Msg("negative net salary")
			}
			records = append(records, record)
			keep = append(keep, employee.ID)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if err := repo.DeleteRecordsExcept(ctx, tenantID, batch.ID, keep); err != nil {
			return err
		}
		if err := repo.UpsertRecords(ctx, tenantID, batch.ID, records); err != nil {
			return err
		}
		stored, err := repo.ListRecords(ctx, tenantID, batch.ID)
		if err != nil {
			return err
		}
		totals := Aggregate(stored)
		updated, err := repo.UpdateBatchTotals(ctx, tenantID, batch.ID, batch.Version, totals, BatchStatusProcessing)
		if err != nil {
			return err
		}

		warnings := 0
		for _, count := range totals.Warnings {
			warnings += count
		}
		result = CalculationResult{
			Batch:    updated,
			Totals:   totals,
			Records:  len(stored),
			Skipped:  skipped,
			Warnings: warnings,
		}
		return nil
	})
	s.metrics.CalculationRun(result.Records, len(result.Skipped), err)
	if err != nil {
		logger.Error().Err(err).Str("tenantId", tenantID).Msg("payroll calculation failed")
		return CalculationResult{}, err
	}
	logger.Info().
		Str("batchId", result.Batch.ID).
		Int("records", result.Records).
		Int("skipped", len(result.Skipped)).
		Str("totalAmount", result.Totals.TotalAmount.String()).
		Msg("payroll calculated")
	return result, nil
}

func (s *Service) buildRecord(batchID string, employee Employee, input Input, loans decimal.Decimal, scores map[string]int) (Record, error) {
	line, err := CalculateLine(s.rules, LineInput{
		BasicSalary:          employee.BasicSalary,
		OvertimeHours:        input.OvertimeHours,
		Allowances:           input.Allowances,
		BehavioralDeductions: input.BehavioralDeductions,
		LoanInstallments:     loans,
	})
	if err != nil {
		return Record{}, err
	}
	score, ok := scores[employee.ID]
	if !ok {
		score = DefaultIntegrityScore
	}
	line = ApplyIntegrity(s.rules, score, line)
	return Record{
		BatchID:        batchID,
		EmployeeID:     employee.ID,
		EmployeeName:   employee.Name,
		Line:           line,
		IntegrityScore: score,
		TaxID:          employee.TaxID,
		BankAccount:    employee.BankAccount,
		PaymentStatus:  PaymentStatusPending,
		Warnings:       lineWarnings(line, employee.BankAccount),
	}, nil
}

// Finalize closes a calculated batch. Finalized batches are terminal.
func (s *Service) Finalize(ctx context.Context, tenantID, batchID string) (Batch, error) {
	var finalized Batch
	err := s.repo.InTx(ctx, func(repo Repository) error {
		batch, err := repo.GetBatch(ctx, tenantID, batchID)
		if err != nil {
			return err
		}
		switch batch.Status {
		case BatchStatusFinalized:
			return ErrBatchFinalized
		case BatchStatusProcessing:
		default:
			return ErrFinalizeInvalidState
		}
		records, err := repo.ListRecords(ctx, tenantID, batchID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return ErrFinalizeNoRecords
		}
		finalized, err = repo.FinalizeBatch(ctx, tenantID, batchID, batch.Version)
		return err
	})
	if err != nil {
		return Batch{}, err
	}
	s.metrics.BatchFinalized()
	logging.FromContext(ctx).Info().Str("batchId", finalized.ID).Str("totalAmount", finalized.TotalAmount.String()).Msg("payroll batch finalized")
	return finalized, nil
}

// SetInput stores the HR-entered baseline for one employee on an open batch.
func (s *Service) SetInput(ctx context.Context, tenantID, batchID string, input Input) (Input, error) {
	if err := input.Validate(); err != nil {
		return Input{}, err
	}
	err := s.repo.InTx(ctx, func(repo Repository) error {
		batch, err := repo.GetBatch(ctx, tenantID, batchID)
		if err != nil {
			return err
		}
		if !batch.Open() {
			return ErrBatchFinalized
		}
		exists, err := repo.EmployeeExists(ctx, tenantID, input.EmployeeID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrEmployeeNotFound
		}
		return repo.UpsertInput(ctx, tenantID, batchID, input)
	})
	if err != nil {
		return Input{}, err
	}
	return input, nil
}

func (s *Service) ListInputs(ctx context.Context, tenantID, batchID string) ([]Input, error) {
	if _, err := s.repo.GetBatch(ctx, tenantID, batchID); err != nil {
		return nil, err
	}
	byEmployee, err := s.repo.ListInputs(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	inputs := make([]Input, 0, len(byEmployee))
	for _, input := range byEmployee {
		inputs = append(inputs, input)
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].EmployeeID < inputs[j].EmployeeID })
	return inputs, nil
}

func (s *Service) ListBatches(ctx context.Context, tenantID string, limit, offset int) ([]Batch, int, error) {
	return s.repo.ListBatches(ctx, tenantID, limit, offset)
}

func (s *Service) OpenBatch(ctx context.Context, tenantID string) (Batch, error) {
	return s.repo.OpenBatch(ctx, tenantID)
}

func (s *Service) BatchDetail(ctx context.Context, tenantID, batchID string) (BatchDetail, error) {
	batch, err := s.repo.GetBatch(ctx, tenantID, batchID)
	if err != nil {
		return BatchDetail{}, err
	}
	records, err := s.repo.ListRecords(ctx, tenantID, batchID)
	if err != nil {
		return BatchDetail{}, err
	}
	if records == nil {
		records = []Record{}
	}
	return BatchDetail{Batch: batch, Totals: Aggregate(records), Records: records}, nil
}

func (s *Service) Record(ctx context.Context, tenantID, batchID, employeeID string) (Batch, Record, error) {
	detail, err := s.BatchDetail(ctx, tenantID, batchID)
	if err != nil {
		return Batch{}, Record{}, err
	}
	for _, record := range detail.Records {
		if record.EmployeeID == employeeID {
			return detail.Batch, record, nil
		}
	}
	return Batch{}, Record{}, ErrRecordNotFound
}
