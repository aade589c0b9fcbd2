package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Email       string           `json:"email"`
	Department  string           `json:"department"`
	BasicSalary *decimal.Decimal `json:"basicSalary,omitempty"`
	HireDate    *time.Time       `json:"hireDate,omitempty"`
	Status      string           `json:"status"`
	TaxID       string           `json:"taxId,omitempty"`
	BankAccount string           `json:"bankAccount,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type EmployeeFilter struct {
	Status string
	Limit  int
	Offset int
}

type Loan struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employeeId"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"createdAt"`
	ClosedAt           *time.Time      `json:"closedAt,omitempty"`
}

type IntegrityScore struct {
	EmployeeID string    `json:"employeeId"`
	Score      int       `json:"score"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
