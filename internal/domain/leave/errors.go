package leave

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDateRange    = errors.New("end date before start date")
	ErrInsufficientBalance = errors.New("insufficient annual leave balance")
	ErrUnknownType         = errors.New("unknown leave type")
	ErrRequestNotFound     = errors.New("leave request not found")
	ErrAlreadyResolved     = errors.New("leave request already resolved")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrInvalidAllowance    = errors.New("annual leave allowance must not be negative")
)

// BalanceError reports a rejected annual request with the figures the
// caller needs for its message.
type BalanceError struct {
	Remaining int
	Requested int
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("remaining balance: %d days, requested: %d days", e.Remaining, e.Requested)
}

func (e *BalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
