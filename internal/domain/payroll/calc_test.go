package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/platform/config"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func TestCalculateLine(t *testing.T) {
	line, err := CalculateLine(DefaultRules(), LineInput{
		BasicSalary:      dec("5000"),
		OvertimeHours:    dec("10"),
		Allowances:       dec("200"),
		LoanInstallments: dec("300"),
	})
	require.NoError(t, err)

	assertDecimal(t, "31.25", line.HourlyRate, "hourly rate")
	assertDecimal(t, "468.75", line.OvertimeAmount, "overtime")
	assertDecimal(t, "5668.75", line.GrossSalary, "gross")
	assertDecimal(t, "300", line.TotalDeductions, "deductions")
	assertDecimal(t, "5368.75", line.NetSalary, "net")
}

func TestCalculateLineWithoutOvertime(t *testing.T) {
	line, err := CalculateLine(DefaultRules(), LineInput{
		BasicSalary: dec("3200"),
		Allowances:  dec("150.50"),
	})
	require.NoError(t, err)
	assertDecimal(t, "0", line.OvertimeAmount, "overtime")
	assertDecimal(t, "3350.50", line.GrossSalary, "gross")
}

func TestCalculateLineRoundsOvertimeToCents(t *testing.T) {
	cfg := config.DefaultPayrollRules()
	cfg.StandardMonthlyHours = 168
	line, err := CalculateLine(NewRules(cfg), LineInput{
		BasicSalary:   dec("4000"),
		OvertimeHours: dec("3"),
	})
	require.NoError(t, err)
	assertDecimal(t, "107.14", line.OvertimeAmount, "overtime")
	assertDecimal(t, "23.809524", line.HourlyRate, "hourly rate")
	assertDecimal(t, "4107.14", line.GrossSalary, "gross")
}

func TestCalculateLineRejectsNegativeInput(t *testing.T) {
	cases := map[string]LineInput{
		"salary":     {BasicSalary: dec("-1")},
		"overtime":   {BasicSalary: dec("1000"), OvertimeHours: dec("-2")},
		"allowances": {BasicSalary: dec("1000"), Allowances: dec("-5")},
		"behavioral": {BasicSalary: dec("1000"), BehavioralDeductions: dec("-5")},
		"loans":      {BasicSalary: dec("1000"), LoanInstallments: dec("-5")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := CalculateLine(DefaultRules(), in)
			assert.ErrorIs(t, err, ErrNegativeInput)
		})
	}
}

func TestCalculateLineMissingSalary(t *testing.T) {
	_, err := CalculateLine(DefaultRules(), LineInput{OvertimeHours: dec("4")})
	assert.ErrorIs(t, err, ErrMissingSalary)
}

func TestNetEqualsGrossMinusDeductions(t *testing.T) {
	salaries := []string{"1000", "2750.55", "9999.99"}
	hours := []string{"0", "1.5", "37"}
	deductions := []string{"0", "120.10", "15000"}
	for _, salary := range salaries {
		for _, h := range hours {
			for _, d := range deductions {
				line, err := CalculateLine(DefaultRules(), LineInput{
					BasicSalary:          dec(salary),
					OvertimeHours:        dec(h),
					Allowances:           dec("75"),
					BehavioralDeductions: dec(d),
					LoanInstallments:     dec("40"),
				})
				require.NoError(t, err)
				for _, score := range []int{40, 80, 99} {
					adjusted := ApplyIntegrity(DefaultRules(), score, line)
					assert.True(t, adjusted.NetSalary.Equal(adjusted.GrossSalary.Sub(adjusted.TotalDeductions)))
					assert.True(t, adjusted.GrossSalary.Equal(adjusted.BasicSalary.Add(adjusted.OvertimeAmount).Add(adjusted.Allowances)))
				}
			}
		}
	}
}

func baseLine(t *testing.T) Line {
	t.Helper()
	line, err := CalculateLine(DefaultRules(), LineInput{
		BasicSalary:          dec("5000"),
		OvertimeHours:        dec("10"),
		Allowances:           dec("200"),
		BehavioralDeductions: dec("100"),
		LoanInstallments:     dec("300"),
	})
	require.NoError(t, err)
	return line
}

func TestApplyIntegrityBonusOverridesAllowances(t *testing.T) {
	line := ApplyIntegrity(DefaultRules(), 97, baseLine(t))
	assertDecimal(t, "1000", line.Allowances, "allowances")
	assertDecimal(t, "6468.75", line.GrossSalary, "gross")
	assertDecimal(t, "6068.75", line.NetSalary, "net")
}

func TestApplyIntegrityPenaltyAddsToDeductions(t *testing.T) {
	line := ApplyIntegrity(DefaultRules(), 70, baseLine(t))
	assertDecimal(t, "600", line.BehavioralDeductions, "behavioral")
	assertDecimal(t, "900", line.TotalDeductions, "deductions")
	assertDecimal(t, "5668.75", line.GrossSalary, "gross")
	assertDecimal(t, "4768.75", line.NetSalary, "net")
}

func TestApplyIntegrityThresholds(t *testing.T) {
	base := baseLine(t)
	cases := []struct {
		score      int
		allowances string
		behavioral string
	}{
		{score: 100, allowances: "1000", behavioral: "100"},
		{score: 95, allowances: "1000", behavioral: "100"},
		{score: 94, allowances: "200", behavioral: "100"},
		{score: 75, allowances: "200", behavioral: "100"},
		{score: 74, allowances: "200", behavioral: "600"},
		{score: 0, allowances: "200", behavioral: "600"},
	}
	for _, tc := range cases {
		line := ApplyIntegrity(DefaultRules(), tc.score, base)
		assertDecimal(t, tc.allowances, line.Allowances, "allowances")
		assertDecimal(t, tc.behavioral, line.BehavioralDeductions, "behavioral")
	}
}

// The bonus is an override and the penalty is additive. Both are kept as
// is; callers must start from the baseline inputs on every run.
func TestApplyIntegrityAsymmetry(t *testing.T) {
	base := baseLine(t)

	once := ApplyIntegrity(DefaultRules(), 99, base)
	twice := ApplyIntegrity(DefaultRules(), 99, once)
	assert.True(t, once.NetSalary.Equal(twice.NetSalary), "bonus is idempotent")

	penalizedOnce := ApplyIntegrity(DefaultRules(), 10, base)
	penalizedTwice := ApplyIntegrity(DefaultRules(), 10, penalizedOnce)
	assertDecimal(t, "1100", penalizedTwice.BehavioralDeductions, "penalty compounds when reapplied")
}

func TestLineWarnings(t *testing.T) {
	line := Line{NetSalary: dec("-10")}
	assert.Equal(t, []string{WarningMissingBank, WarningNegativeNet}, lineWarnings(line, ""))
	assert.Empty(t, lineWarnings(Line{NetSalary: dec("10")}, "DE001"))
}

func TestAggregate(t *testing.T) {
	records := []Record{
		{Line: Line{NetSalary: dec("100.10"), GrossSalary: dec("150"), TotalDeductions: dec("49.90")}, Warnings: []string{WarningMissingBank}},
		{Line: Line{NetSalary: dec("-20"), GrossSalary: dec("80"), TotalDeductions: dec("100")}, Warnings: []string{WarningMissingBank, WarningNegativeNet}},
		{Line: Line{NetSalary: dec("3000"), GrossSalary: dec("3000"), TotalDeductions: dec("0")}},
	}
	totals := Aggregate(records)
	assertDecimal(t, "3080.10", totals.TotalAmount, "total")
	assertDecimal(t, "3230", totals.TotalGross, "gross")
	assertDecimal(t, "149.90", totals.TotalDeductions, "deductions")
	assert.Equal(t, 3, totals.EmployeeCount)
	assert.Equal(t, map[string]int{WarningMissingBank: 2, WarningNegativeNet: 1}, totals.Warnings)

	empty := Aggregate(nil)
	assert.True(t, empty.TotalAmount.IsZero())
	assert.Equal(t, 0, empty.EmployeeCount)
}

func TestEndToEndLine(t *testing.T) {
	line, err := CalculateLine(DefaultRules(), LineInput{
		BasicSalary:      dec("6000"),
		OvertimeHours:    dec("10"),
		Allowances:       dec("200"),
		LoanInstallments: dec("300"),
	})
	require.NoError(t, err)
	assertDecimal(t, "37.5", line.HourlyRate, "hourly rate")
	assertDecimal(t, "562.5", line.OvertimeAmount, "overtime")
	assertDecimal(t, "6762.5", line.GrossSalary, "gross before integrity")

	line = ApplyIntegrity(DefaultRules(), 97, line)
	assertDecimal(t, "7562.5", line.GrossSalary, "gross")
	assertDecimal(t, "300", line.TotalDeductions, "deductions")
	assertDecimal(t, "7262.5", line.NetSalary, "net")
}
