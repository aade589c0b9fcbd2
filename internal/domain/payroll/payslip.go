package payroll

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// Payslip renders one employee's record from a batch as a PDF.
func (s *Service) Payslip(ctx context.Context, tenantID, batchID, employeeID, company string) ([]byte, error) {
	batch, record, err := s.Record(ctx, tenantID, batchID, employeeID)
	if err != nil {
		return nil, err
	}
	return RenderPayslip(company, batch, record)
}

func RenderPayslip(company string, batch Batch, record Record) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	if company != "" {
		pdf.Cell(0, 8, company)
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", record.EmployeeName))
	pdf.Ln(7)
	if record.TaxID != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Tax ID: %s", record.TaxID))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Batch: %s (%s)", batch.Label, batch.Status))
	pdf.Ln(10)

	lines := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Basic salary", record.BasicSalary},
		{fmt.Sprintf("Overtime (%s h)", record.OvertimeHours.String()), record.OvertimeAmount},
		{"Allowances", record.Allowances},
		{"Gross", record.GrossSalary},
		{"Behavioral deductions", record.BehavioralDeductions},
		{"Loan installments", record.LoanInstallments},
		{"Total deductions", record.TotalDeductions},
	}
	for _, line := range lines {
		pdf.CellFormat(90, 8, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, line.amount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(90, 8, "Net salary", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, record.NetSalary.StringFixed(2), "T", 1, "R", false, 0, "")
	if len(record.Warnings) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 8, "Warnings: "+strings.Join(record.Warnings, ", "))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
