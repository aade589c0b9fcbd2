package core

const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"

	LoanStatusActive = "ACTIVE"
	LoanStatusClosed = "CLOSED"

	MinIntegrityScore = 0
	MaxIntegrityScore = 100
)
