package payroll

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const registerSheet = "Register"

var registerHeader = []any{
	"Employee ID", "Employee", "Tax ID", "Bank Account", "Basic Salary", "Overtime Hours",
	"Overtime Amount", "Allowances", "Behavioral Deductions", "Loan Installments",
	"Total Deductions", "Gross Salary", "Net Salary", "Integrity Score", "Warnings",
}

// ExportRegister renders the batch register as an XLSX workbook.
func (s *Service) ExportRegister(ctx context.Context, tenantID, batchID string) ([]byte, error) {
	detail, err := s.BatchDetail(ctx, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	return BuildRegister(detail)
}

func BuildRegister(detail BatchDetail) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(registerSheet)
	if err != nil {
		return nil, err
	}
	rowNum := 1
	title := fmt.Sprintf("Payroll batch %s (%s)", detail.Batch.Label, detail.Batch.Status)
	if err := sw.SetRow(cellName(rowNum), []any{excelize.Cell{StyleID: headerStyle, Value: title}}); err != nil {
		return nil, err
	}
	rowNum += 2
	if err := sw.SetRow(cellName(rowNum), registerHeader, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return nil, err
	}
	for _, record := range detail.Records {
		rowNum++
		money := func(d decimal.Decimal) excelize.Cell {
			return excelize.Cell{StyleID: moneyStyle, Value: d.InexactFloat64()}
		}
		row := []any{
			record.EmployeeID,
			record.EmployeeName,
			record.TaxID,
			record.BankAccount,
			money(record.BasicSalary),
			record.OvertimeHours.InexactFloat64(),
			money(record.OvertimeAmount),
			money(record.Allowances),
			money(record.BehavioralDeductions),
			money(record.LoanInstallments),
			money(record.TotalDeductions),
			money(record.GrossSalary),
			money(record.NetSalary),
			record.IntegrityScore,
			strings.Join(record.Warnings, ", "),
		}
		if err := sw.SetRow(cellName(rowNum), row); err != nil {
			return nil, err
		}
	}
	rowNum += 2
	totals := []any{
		excelize.Cell{StyleID: headerStyle, Value: "Totals"},
		fmt.Sprintf("%d employees", detail.Totals.EmployeeCount),
		"", "", "", "", "", "", "", "",
		excelize.Cell{StyleID: moneyStyle, Value: detail.Totals.TotalDeductions.InexactFloat64()},
		excelize.Cell{StyleID: moneyStyle, Value: detail.Totals.TotalGross.InexactFloat64()},
		excelize.Cell{StyleID: moneyStyle, Value: detail.Totals.TotalAmount.InexactFloat64()},
	}
	if err := sw.SetRow(cellName(rowNum), totals); err != nil {
		return nil, err
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellName(row int) string {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	return cell
}
