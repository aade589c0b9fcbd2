package payroll

import (
	"github.com/shopspring/decimal"

	"hrconsole/internal/platform/config"
)

// Rules are the business constants the calculator works with.
type Rules struct {
	StandardMonthlyHours decimal.Decimal
	OvertimeMultiplier   decimal.Decimal
	BonusThreshold       int
	BonusAmount          decimal.Decimal
	PenaltyThreshold     int
	PenaltyAmount        decimal.Decimal
	CurrencyScale        int32
}

func NewRules(cfg config.PayrollRules) Rules {
	return Rules{
		StandardMonthlyHours: decimal.NewFromFloat(cfg.StandardMonthlyHours),
		OvertimeMultiplier:   decimal.NewFromFloat(cfg.OvertimeMultiplier),
		BonusThreshold:       cfg.IntegrityBonusThreshold,
		BonusAmount:          decimal.NewFromFloat(cfg.IntegrityBonusAmount),
		PenaltyThreshold:     cfg.IntegrityPenaltyThreshold,
		PenaltyAmount:        decimal.NewFromFloat(cfg.IntegrityPenaltyAmount),
		CurrencyScale:        int32(cfg.CurrencyScale),
	}
}

func DefaultRules() Rules {
	return NewRules(config.DefaultPayrollRules())
}
