package leave

import "time"

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// RequestedDays returns the inclusive calendar-day count between start and
// end. Time of day is ignored. Days are counted on Unix seconds since
// time.Duration tops out near 292 years.
func RequestedDays(start, end time.Time) (int, error) {
	days := int((dateOnly(end).Unix()-dateOnly(start).Unix())/secondsPerDay) + 1
	if days <= 0 {
		return 0, ErrInvalidDateRange
	}
	return days, nil
}

// UsedAnnualDays sums approved annual leave starting in year.
func UsedAnnualDays(history []Request, year int) int {
	used := 0
	for _, req := range history {
		if req.Status != StatusApproved || req.Type != TypeAnnual || req.StartDate.Year() != year {
			continue
		}
		days, err := RequestedDays(req.StartDate, req.EndDate)
		if err != nil {
			continue
		}
		used += days
	}
	return used
}

func pendingAnnualDays(history []Request, year int) int {
	pending := 0
	for _, req := range history {
		if req.Status != StatusPending || req.Type != TypeAnnual || req.StartDate.Year() != year {
			continue
		}
		if days, err := RequestedDays(req.StartDate, req.EndDate); err == nil {
			pending += days
		}
	}
	return pending
}

// ValidateRequest decides whether req may be stored as pending. Only annual
// leave is checked against the balance for the year of now.
func ValidateRequest(allowance int, history []Request, req NewRequest, now time.Time) (Decision, error) {
	if !ValidType(req.Type) {
		return Decision{}, ErrUnknownType
	}
	requested, err := RequestedDays(req.StartDate, req.EndDate)
	if err != nil {
		return Decision{}, err
	}
	decision := Decision{RequestedDays: requested}
	if req.Type != TypeAnnual {
		return decision, nil
	}

	used := UsedAnnualDays(history, now.Year())
	decision.BalanceChecked = true
	decision.Allowance = allowance
	decision.UsedDays = used
	decision.Remaining = allowance - used
	if requested > decision.Remaining {
		return decision, &BalanceError{Remaining: decision.Remaining, Requested: requested}
	}
	return decision, nil
}
