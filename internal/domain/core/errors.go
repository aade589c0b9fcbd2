package core

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDuplicateEmail     = errors.New("employee email already exists")
	ErrInvalidStatus      = errors.New("invalid employee status")
	ErrInvalidSalary      = errors.New("basic salary must be positive")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrLoanClosed         = errors.New("loan already closed")
	ErrInvalidInstallment = errors.New("monthly installment must be positive")
	ErrInvalidScore       = errors.New("integrity score must be between 0 and 100")
)
