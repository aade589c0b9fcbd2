package leave

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(StoreAPI) error) error

	// LockEmployee serializes balance decisions for one employee until the
	// surrounding transaction ends.
	LockEmployee(ctx context.Context, tenantID, employeeID string) error
	AnnualAllowance(ctx context.Context, tenantID string) (int, bool, error)
	SetAnnualAllowance(ctx context.Context, tenantID string, days int) error

	ListAnnualLeaves(ctx context.Context, tenantID, employeeID string, year int) ([]Request, error)
	CreateRequest(ctx context.Context, tenantID string, req Request) (Request, error)
	GetRequest(ctx context.Context, tenantID, requestID string) (Request, error)
	ListRequests(ctx context.Context, tenantID string, filter RequestFilter) (RequestListResult, error)
	ResolveRequest(ctx context.Context, tenantID, requestID, status, resolvedBy string) (Request, error)
}
