package payroll

import "github.com/shopspring/decimal"

type LineInput struct {
	BasicSalary          decimal.Decimal
	OvertimeHours        decimal.Decimal
	Allowances           decimal.Decimal
	BehavioralDeductions decimal.Decimal
	LoanInstallments     decimal.Decimal
}

// Line is one employee's computed payroll figures.
type Line struct {
	BasicSalary          decimal.Decimal `json:"basicSalary"`
	OvertimeHours        decimal.Decimal `json:"overtimeHours"`
	HourlyRate           decimal.Decimal `json:"hourlyRate"`
	OvertimeAmount       decimal.Decimal `json:"overtimeAmount"`
	Allowances           decimal.Decimal `json:"allowances"`
	BehavioralDeductions decimal.Decimal `json:"behavioralDeductions"`
	LoanInstallments     decimal.Decimal `json:"loanInstallments"`
	TotalDeductions      decimal.Decimal `json:"totalDeductions"`
	GrossSalary          decimal.Decimal `json:"grossSalary"`
	NetSalary            decimal.Decimal `json:"netSalary"`
}

// CalculateLine derives overtime, gross, deductions and net from the raw
// inputs. Only the overtime amount is rounded, to the currency scale.
func CalculateLine(rules Rules, in LineInput) (Line, error) {
	for _, v := range []decimal.Decimal{in.BasicSalary, in.OvertimeHours, in.Allowances, in.BehavioralDeductions, in.LoanInstallments} {
		if v.IsNegative() {
			return Line{}, ErrNegativeInput
		}
	}
	if !in.BasicSalary.IsPositive() {
		return Line{}, ErrMissingSalary
	}

	line := Line{
		BasicSalary:          in.BasicSalary,
		OvertimeHours:        in.OvertimeHours,
		HourlyRate:           in.BasicSalary.Div(rules.StandardMonthlyHours).Round(hourlyRateScale),
		Allowances:           in.Allowances,
		BehavioralDeductions: in.BehavioralDeductions,
		LoanInstallments:     in.LoanInstallments,
	}
	// hours * (basic / standard) * multiplier, divided last to keep precision
	line.OvertimeAmount = in.OvertimeHours.
		Mul(in.BasicSalary).
		Mul(rules.OvertimeMultiplier).
		Div(rules.StandardMonthlyHours).
		Round(rules.CurrencyScale)
	return line.Recompute(), nil
}

// Recompute refreshes gross, total deductions and net from the components.
func (l Line) Recompute() Line {
	l.GrossSalary = l.BasicSalary.Add(l.OvertimeAmount).Add(l.Allowances)
	l.TotalDeductions = l.BehavioralDeductions.Add(l.LoanInstallments)
	l.NetSalary = l.GrossSalary.Sub(l.TotalDeductions)
	return l
}

// ApplyIntegrity adjusts a line for the employee's integrity score. A high
// score replaces allowances with the bonus amount; a low score adds the
// penalty on top of existing behavioral deductions.
func ApplyIntegrity(rules Rules, score int, line Line) Line {
	switch {
	case score >= rules.BonusThreshold:
		line.Allowances = rules.BonusAmount
	case score < rules.PenaltyThreshold:
		line.BehavioralDeductions = line.BehavioralDeductions.Add(rules.PenaltyAmount)
	}
	return line.Recompute()
}

func lineWarnings(line Line, bankAccount string) []string {
	warnings := []string{}
	if bankAccount == "" {
		warnings = append(warnings, WarningMissingBank)
	}
	if line.NetSalary.IsNegative() {
		warnings = append(warnings, WarningNegativeNet)
	}
	return warnings
}
