package leave

import (
	"context"
	"errors"
	"time"

	"hrconsole/internal/platform/logging"
	"hrconsole/internal/platform/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	store            StoreAPI
	defaultAllowance int
	metrics          *metrics.Collector
	now              func() time.Time
}

type Option func(*Service)

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store StoreAPI, defaultAllowance int, opts ...Option) *Service {
	s := &Service{store: store, defaultAllowance: defaultAllowance, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allowance returns the tenant's annual allowance, falling back to the
// configured default when the tenant has no override.
func (s *Service) Allowance(ctx context.Context, tenantID string) (int, error) {
	return s.allowance(ctx, s.store, tenantID)
}

func (s *Service) allowance(ctx context.Context, store StoreAPI, tenantID string) (int, error) {
	days, ok, err := store.AnnualAllowance(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return s.defaultAllowance, nil
	}
	return days, nil
}

func (s *Service) SetAllowance(ctx context.Context, tenantID string, days int) error {
	if days < 0 {
		return ErrInvalidAllowance
	}
	return s.store.SetAnnualAllowance(ctx, tenantID, days)
}

// Submit validates req against the employee's balance and stores it as
// pending. A *BalanceError is returned when annual balance is short.
func (s *Service) Submit(ctx context.Context, tenantID string, req NewRequest) (SubmitResult, error) {
	if !ValidType(req.Type) {
		return SubmitResult{}, ErrUnknownType
	}
	if _, err := RequestedDays(req.StartDate, req.EndDate); err != nil {
		return SubmitResult{}, err
	}

	var result SubmitResult
	err := s.store.InTx(ctx, func(store StoreAPI) error {
		if err := store.LockEmployee(ctx, tenantID, req.EmployeeID); err != nil {
			return err
		}
		now := s.now()
		allowance, err := s.allowance(ctx, store, tenantID)
		if err != nil {
			return err
		}
		history, err := store.ListAnnualLeaves(ctx, tenantID, req.EmployeeID, now.Year())
		if err != nil {
			return err
		}
		decision, err := ValidateRequest(allowance, history, req, now)
		if err != nil {
			return err
		}
		created, err := store.CreateRequest(ctx, tenantID, Request{
			EmployeeID: req.EmployeeID,
			Type:       req.Type,
			StartDate:  dateOnly(req.StartDate),
			EndDate:    dateOnly(req.EndDate),
			Days:       decision.RequestedDays,
			Reason:     req.Reason,
			Status:     StatusPending,
		})
		if err != nil {
			return err
		}
		result = SubmitResult{Request: created, Decision: decision}
		return nil
	})
	if err != nil {
		s.logRejection(ctx, req, err)
		return SubmitResult{}, err
	}
	return result, nil
}

func (s *Service) logRejection(ctx context.Context, req NewRequest, err error) {
	var balanceErr *BalanceError
	if !errors.As(err, &balanceErr) {
		return
	}
	s.metrics.LeaveRejected()
	logging.FromContext(ctx).Info().
		Str("employeeId", req.EmployeeID).
		Int("remaining", balanceErr.Remaining).
		Int("requested", balanceErr.Requested).
		Msg("annual leave rejected for balance")
}

// Resolve approves or rejects a pending request. Approving annual leave
// re-checks the balance, since pending requests do not reserve days.
func (s *Service) Resolve(ctx context.Context, tenantID, requestID string, approve bool, actorUserID string) (Request, error) {
	status := StatusRejected
	if approve {
		status = StatusApproved
	}
	var resolved Request
	err := s.store.InTx(ctx, func(store StoreAPI) error {
		current, err := store.GetRequest(ctx, tenantID, requestID)
		if err != nil {
			return err
		}
		if current.Status != StatusPending {
			return ErrAlreadyResolved
		}
		if approve && current.Type == TypeAnnual {
			if err := store.LockEmployee(ctx, tenantID, current.EmployeeID); err != nil {
				return err
			}
			allowance, err := s.allowance(ctx, store, tenantID)
			if err != nil {
				return err
			}
			now := s.now()
			history, err := store.ListAnnualLeaves(ctx, tenantID, current.EmployeeID, now.Year())
			if err != nil {
				return err
			}
			if _, err := ValidateRequest(allowance, history, NewRequest{
				EmployeeID: current.EmployeeID,
				Type:       current.Type,
				StartDate:  current.StartDate,
				EndDate:    current.EndDate,
			}, now); err != nil {
				return err
			}
		}
		resolved, err = store.ResolveRequest(ctx, tenantID, requestID, status, actorUserID)
		return err
	})
	if err != nil {
		return Request{}, err
	}
	return resolved, nil
}

func (s *Service) Get(ctx context.Context, tenantID, requestID string) (Request, error) {
	return s.store.GetRequest(ctx, tenantID, requestID)
}

func (s *Service) List(ctx context.Context, tenantID string, filter RequestFilter) (RequestListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListRequests(ctx, tenantID, filter)
}

// Balance reports the employee's annual balance for the current year.
func (s *Service) Balance(ctx context.Context, tenantID, employeeID string) (Balance, error) {
	allowance, err := s.Allowance(ctx, tenantID)
	if err != nil {
		return Balance{}, err
	}
	year := s.now().Year()
	history, err := s.store.ListAnnualLeaves(ctx, tenantID, employeeID, year)
	if err != nil {
		return Balance{}, err
	}
	used := UsedAnnualDays(history, year)
	return Balance{
		EmployeeID:  employeeID,
		Year:        year,
		Allowance:   allowance,
		UsedDays:    used,
		PendingDays: pendingAnnualDays(history, year),
		Remaining:   allowance - used,
	}, nil
}
