package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrconsole/internal/platform/db"
	"hrconsole/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		return fn(&Store{DB: q})
	})
}

func (s *Store) LockEmployee(ctx context.Context, tenantID, employeeID string) error {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id::text FROM employees WHERE tenant_id = $1 AND id::text = $2 FOR UPDATE
  `, tenantID, employeeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEmployeeNotFound
	}
	return err
}

func (s *Store) AnnualAllowance(ctx context.Context, tenantID string) (int, bool, error) {
	var days int
	err := s.DB.QueryRow(ctx, "SELECT annual_leave_allowance FROM tenant_settings WHERE tenant_id = $1", tenantID).Scan(&days)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load leave allowance: %w", err)
	}
	return days, true, nil
}

func (s *Store) SetAnnualAllowance(ctx context.Context, tenantID string, days int) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO tenant_settings (tenant_id, annual_leave_allowance)
    VALUES ($1, $2)
    ON CONFLICT (tenant_id) DO UPDATE SET annual_leave_allowance = EXCLUDED.annual_leave_allowance, updated_at = now()
  `, tenantID, days)
	return err
}

const requestColumns = `id::text, employee_id::text, leave_type, start_date, end_date, days, reason, status,
           COALESCE(resolved_by::text, ''), resolved_at, created_at`

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate, &req.Days, &req.Reason, &req.Status,
		&req.ResolvedBy, &req.ResolvedAt, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return req, err
}

// ListAnnualLeaves returns the employee's annual requests starting in year,
// in every status.
func (s *Store) ListAnnualLeaves(ctx context.Context, tenantID, employeeID string, year int) ([]Request, error) {
	return db.RetryRead(ctx, s.DB, func(ctx context.Context) ([]Request, error) {
		rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE tenant_id = $1 AND employee_id::text = $2 AND leave_type = $3
      AND start_date >= make_date($4, 1, 1) AND start_date < make_date($4 + 1, 1, 1)
    ORDER BY start_date
  `, tenantID, employeeID, TypeAnnual, year)
		if err != nil {
			return nil, fmt.Errorf("list annual leaves: %w", err)
		}
		defer rows.Close()

		var out []Request
		for rows.Next() {
			req, err := scanRequest(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, req)
		}
		return out, rows.Err()
	})
}

func (s *Store) CreateRequest(ctx context.Context, tenantID string, req Request) (Request, error) {
	created, err := scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (tenant_id, employee_id, leave_type, start_date, end_date, days, reason, status)
    VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8)
    RETURNING `+requestColumns+`
  `, tenantID, req.EmployeeID, req.Type, req.StartDate, req.EndDate, req.Days, req.Reason, req.Status))
	if err != nil {
		return Request{}, fmt.Errorf("insert leave request: %w", err)
	}
	return created, nil
}

func (s *Store) GetRequest(ctx context.Context, tenantID, requestID string) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE tenant_id = $1 AND id::text = $2
  `, tenantID, requestID))
}

func (s *Store) ListRequests(ctx context.Context, tenantID string, filter RequestFilter) (RequestListResult, error) {
	where := "WHERE tenant_id = $1"
	args := []any{tenantID}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND employee_id::text = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var result RequestListResult
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests "+where, args...).Scan(&result.Total); err != nil {
		return RequestListResult{}, fmt.Errorf("count leave requests: %w", err)
	}
	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT `+requestColumns+`
    FROM leave_requests
    %s
    ORDER BY created_at DESC
    LIMIT $%d OFFSET $%d
  `, where, len(args)-1, len(args)), args...)
	if err != nil {
		return RequestListResult{}, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	result.Items = []Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return RequestListResult{}, err
		}
		result.Items = append(result.Items, req)
	}
	return result, rows.Err()
}

// ResolveRequest moves a pending request to status. Requests that are no
// longer pending are left untouched and yield ErrAlreadyResolved.
func (s *Store) ResolveRequest(ctx context.Context, tenantID, requestID, status, resolvedBy string) (Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE leave_requests
    SET status = $1, resolved_by = NULLIF($2, '')::uuid, resolved_at = now()
    WHERE tenant_id = $3 AND id::text = $4 AND status = $5
    RETURNING `+requestColumns+`
  `, status, resolvedBy, tenantID, requestID, StatusPending))
	if errors.Is(err, ErrRequestNotFound) {
		if _, getErr := s.GetRequest(ctx, tenantID, requestID); getErr != nil {
			return Request{}, getErr
		}
		return Request{}, ErrAlreadyResolved
	}
	return req, err
}
