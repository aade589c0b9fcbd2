package payroll

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Rows are scanned as text and validated before they reach the calculator,
// so a corrupt value fails loudly instead of becoming a zero.
var rowValidator = newRowValidator()

func newRowValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := decimal.NewFromString(fl.Field().String())
		return err == nil
	})
	return v
}

func decodeRow(row any) error {
	if err := rowValidator.Struct(row); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	return nil
}

type employeeRow struct {
	ID          string  `validate:"required,uuid"`
	Name        string  `validate:"required"`
	Email       string
	TaxID       string
	BankAccount string
	BasicSalary *string `validate:"omitempty,money"`
}

func (r employeeRow) toEmployee() (Employee, error) {
	if err := decodeRow(r); err != nil {
		return Employee{}, err
	}
	employee := Employee{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		TaxID:       r.TaxID,
		BankAccount: r.BankAccount,
		BasicSalary: decimal.Zero,
	}
	if r.BasicSalary != nil {
		employee.BasicSalary = decimal.RequireFromString(*r.BasicSalary)
	}
	return employee, nil
}

type loanTotalRow struct {
	EmployeeID string `validate:"required,uuid"`
	Total      string `validate:"required,money"`
}

type scoreRow struct {
	EmployeeID string `validate:"required,uuid"`
	Score      int    `validate:"min=0,max=100"`
}

type inputRow struct {
	EmployeeID           string `validate:"required,uuid"`
	OvertimeHours        string `validate:"required,money"`
	Allowances           string `validate:"required,money"`
	BehavioralDeductions string `validate:"required,money"`
}

func (r inputRow) toInput() (Input, error) {
	if err := decodeRow(r); err != nil {
		return Input{}, err
	}
	return Input{
		EmployeeID:           r.EmployeeID,
		OvertimeHours:        decimal.RequireFromString(r.OvertimeHours),
		Allowances:           decimal.RequireFromString(r.Allowances),
		BehavioralDeductions: decimal.RequireFromString(r.BehavioralDeductions),
	}, nil
}

type batchRow struct {
	ID            string `validate:"required,uuid"`
	Label         string `validate:"required"`
	Status        string `validate:"oneof=DRAFT PROCESSING FINALIZED"`
	TotalAmount   string `validate:"required,amount"`
	EmployeeCount int    `validate:"min=0"`
	Version       int    `validate:"min=0"`
	CreatedAt     time.Time
	FinalizedAt   *time.Time
}

func (r batchRow) toBatch() (Batch, error) {
	if err := decodeRow(r); err != nil {
		return Batch{}, err
	}
	return Batch{
		ID:            r.ID,
		Label:         r.Label,
		Status:        r.Status,
		TotalAmount:   decimal.RequireFromString(r.TotalAmount),
		EmployeeCount: r.EmployeeCount,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		FinalizedAt:   r.FinalizedAt,
	}, nil
}

type recordRow struct {
	ID                   string `validate:"required,uuid"`
	BatchID              string `validate:"required,uuid"`
	EmployeeID           string `validate:"required,uuid"`
	EmployeeName         string
	BasicSalary          string `validate:"required,money"`
	OvertimeHours        string `validate:"required,money"`
	HourlyRate           string `validate:"required,money"`
	OvertimeAmount       string `validate:"required,money"`
	Allowances           string `validate:"required,money"`
	BehavioralDeductions string `validate:"required,money"`
	LoanInstallments     string `validate:"required,money"`
	TotalDeductions      string `validate:"required,money"`
	GrossSalary          string `validate:"required,money"`
	NetSalary            string `validate:"required,amount"`
	IntegrityScore       int    `validate:"min=0,max=100"`
	TaxID                string
	BankAccount          string
	PaymentStatus        string `validate:"oneof=PENDING PAID"`
	WarningsJSON         []byte
	UpdatedAt            time.Time
}

func (r recordRow) toRecord() (Record, error) {
	if err := decodeRow(r); err != nil {
		return Record{}, err
	}
	warnings := []string{}
	if len(r.WarningsJSON) > 0 {
		if err := json.Unmarshal(r.WarningsJSON, &warnings); err != nil {
			return Record{}, fmt.Errorf("%w: warnings: %v", ErrMalformedRow, err)
		}
	}
	return Record{
		ID:           r.ID,
		BatchID:      r.BatchID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Line: Line{
			BasicSalary:          decimal.RequireFromString(r.BasicSalary),
			OvertimeHours:        decimal.RequireFromString(r.OvertimeHours),
			HourlyRate:           decimal.RequireFromString(r.HourlyRate),
			OvertimeAmount:       decimal.RequireFromString(r.OvertimeAmount),
			Allowances:           decimal.RequireFromString(r.Allowances),
			BehavioralDeductions: decimal.RequireFromString(r.BehavioralDeductions),
			LoanInstallments:     decimal.RequireFromString(r.LoanInstallments),
			TotalDeductions:      decimal.RequireFromString(r.TotalDeductions),
			GrossSalary:          decimal.RequireFromString(r.GrossSalary),
			NetSalary:            decimal.RequireFromString(r.NetSalary),
		},
		IntegrityScore: r.IntegrityScore,
		TaxID:          r.TaxID,
		BankAccount:    r.BankAccount,
		PaymentStatus:  r.PaymentStatus,
		Warnings:       warnings,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}
