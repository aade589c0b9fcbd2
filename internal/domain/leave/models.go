package leave

import "time"

type Request struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Type       string     `json:"type"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	Days       int        `json:"days"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	ResolvedBy string     `json:"resolvedBy,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type NewRequest struct {
	EmployeeID string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// Decision is the validator's verdict on an eligible request.
type Decision struct {
	RequestedDays  int  `json:"requestedDays"`
	BalanceChecked bool `json:"balanceChecked"`
	Allowance      int  `json:"allowance"`
	UsedDays       int  `json:"usedDays"`
	Remaining      int  `json:"remaining"`
}

type Balance struct {
	EmployeeID  string `json:"employeeId"`
	Year        int    `json:"year"`
	Allowance   int    `json:"allowance"`
	UsedDays    int    `json:"usedDays"`
	PendingDays int    `json:"pendingDays"`
	Remaining   int    `json:"remaining"`
}

type RequestFilter struct {
	EmployeeID string
	Status     string
	Limit      int
	Offset     int
}

type RequestListResult struct {
	Items []Request `json:"items"`
	Total int       `json:"total"`
}

type SubmitResult struct {
	Request  Request  `json:"request"`
	Decision Decision `json:"decision"`
}
