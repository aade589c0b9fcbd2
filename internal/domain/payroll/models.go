package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the payroll view of an active employee. A zero BasicSalary
// means no salary is on file.
type Employee struct {
	ID          string
	Name        string
	Email       string
	TaxID       string
	BankAccount string
	BasicSalary decimal.Decimal
}

type Input struct {
	EmployeeID           string          `json:"employeeId"`
	OvertimeHours        decimal.Decimal `json:"overtimeHours"`
	Allowances           decimal.Decimal `json:"allowances"`
	BehavioralDeductions decimal.Decimal `json:"behavioralDeductions"`
}

func (in Input) Validate() error {
	if in.OvertimeHours.IsNegative() || in.Allowances.IsNegative() || in.BehavioralDeductions.IsNegative() {
		return ErrNegativeInput
	}
	return nil
}

type Batch struct {
	ID            string          `json:"id"`
	Label         string          `json:"label"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	EmployeeCount int             `json:"employeeCount"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"createdAt"`
	FinalizedAt   *time.Time      `json:"finalizedAt,omitempty"`
}

func (b Batch) Open() bool {
	return b.Status != BatchStatusFinalized
}

type Record struct {
	ID           string `json:"id"`
	BatchID      string `json:"batchId"`
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Line
	IntegrityScore int       `json:"integrityScore"`
	TaxID          string    `json:"taxId"`
	BankAccount    string    `json:"bankAccount"`
	PaymentStatus  string    `json:"paymentStatus"`
	Warnings       []string  `json:"warnings"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type BatchDetail struct {
	Batch   Batch    `json:"batch"`
	Totals  Totals   `json:"totals"`
	Records []Record `json:"records"`
}

type SkippedEmployee struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

type CalculationResult struct {
	Batch    Batch             `json:"batch"`
	Totals   Totals            `json:"totals"`
	Records  int               `json:"records"`
	Skipped  []SkippedEmployee `json:"skipped"`
	Warnings int               `json:"warnings"`
}
