package leave

const (
	TypeAnnual    = "Annual"
	TypeSick      = "Sick"
	TypeUnpaid    = "Unpaid"
	TypeEmergency = "Emergency"

	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

func ValidType(leaveType string) bool {
	switch leaveType {
	case TypeAnnual, TypeSick, TypeUnpaid, TypeEmergency:
		return true
	}
	return false
}
