package payroll

import "github.com/shopspring/decimal"

type Totals struct {
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TotalGross      decimal.Decimal `json:"totalGross"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	EmployeeCount   int             `json:"employeeCount"`
	Warnings        map[string]int  `json:"warnings"`
}

// Aggregate sums a batch's records. TotalAmount is the sum of net salaries.
func Aggregate(records []Record) Totals {
	totals := Totals{
		TotalAmount:     decimal.Zero,
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		EmployeeCount:   len(records),
		Warnings:        map[string]int{},
	}
	for _, record := range records {
		totals.TotalAmount = totals.TotalAmount.Add(record.NetSalary)
		totals.TotalGross = totals.TotalGross.Add(record.GrossSalary)
		totals.TotalDeductions = totals.TotalDeductions.Add(record.TotalDeductions)
		for _, warning := range record.Warnings {
			totals.Warnings[warning]++
		}
	}
	return totals
}
