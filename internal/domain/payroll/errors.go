package payroll

import "errors"

var (
	ErrNegativeInput         = errors.New("payroll inputs must not be negative")
	ErrMissingSalary         = errors.New("employee has no basic salary")
	ErrBatchNotFound         = errors.New("payroll batch not found")
	ErrNoOpenBatch           = errors.New("no open payroll batch")
	ErrBatchFinalized        = errors.New("payroll batch is finalized")
	ErrBatchConflict         = errors.New("payroll batch was modified concurrently")
	ErrCalculationInProgress = errors.New("payroll calculation already running for tenant")
	ErrFinalizeInvalidState  = errors.New("payroll batch must be calculated before finalize")
	ErrFinalizeNoRecords     = errors.New("payroll batch has no payroll records")
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrRecordNotFound        = errors.New("payroll record not found")
	ErrMalformedRow          = errors.New("malformed payroll row")
)
