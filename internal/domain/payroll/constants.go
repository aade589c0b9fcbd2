package payroll

const (
	BatchStatusDraft      = "DRAFT"
	BatchStatusProcessing = "PROCESSING"
	BatchStatusFinalized  = "FINALIZED"

	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"

	WarningMissingBank = "missing_bank_account"
	WarningNegativeNet = "negative_net"

	// DefaultIntegrityScore applies to employees without a recorded score.
	DefaultIntegrityScore = 100

	batchLabelLayout = "2006-01-02"
	calcLockPrefix   = "payroll:calc:"
	hourlyRateScale  = 6
)
