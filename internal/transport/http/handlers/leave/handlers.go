package leavehandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/leave"
	"hrconsole/internal/platform/logging"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionChecker
	Audit   audit.Recorder
}

func NewHandler(service *leave.Service, perms middleware.PermissionChecker, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/requests", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove, h.Perms)).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/balances/{employeeID}", h.handleBalance)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermLeaveSettings, h.Perms)).Put("/settings", h.handleUpdateSettings)
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	var balanceErr *leave.BalanceError
	switch {
	case errors.As(err, &balanceErr):
		api.FailWithDetails(w, http.StatusBadRequest, "insufficient_balance", balanceErr.Error(), map[string]int{
			"remaining": balanceErr.Remaining,
			"requested": balanceErr.Requested,
		}, reqID)
	case errors.Is(err, leave.ErrInvalidDateRange),
		errors.Is(err, leave.ErrUnknownType),
		errors.Is(err, leave.ErrInvalidAllowance):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, leave.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "leave_request_not_found", err.Error(), reqID)
	case errors.Is(err, leave.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", err.Error(), reqID)
	case errors.Is(err, leave.ErrAlreadyResolved):
		api.Fail(w, http.StatusConflict, "leave_already_resolved", err.Error(), reqID)
	default:
		logging.FromContext(r.Context()).Error().Err(err).Str("code", code).Msg(message)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}

// ownEmployee reports whether user is confined to their own leave and, if
// so, which employee that is. An unlinked employee account gets "".
func ownEmployee(user auth.UserContext) (string, bool) {
	if user.Role != auth.RoleEmployee {
		return "", false
	}
	return user.EmployeeID, true
}

func failForbidden(w http.ResponseWriter, r *http.Request, own string) {
	reqID := middleware.GetRequestID(r.Context())
	if own == "" {
		api.Fail(w, http.StatusForbidden, "employee_not_linked", "account is not linked to an employee record", reqID)
		return
	}
	api.Fail(w, http.StatusForbidden, "forbidden", "employees may only access their own leave", reqID)
}

type submitRequest struct {
	EmployeeID string `json:"employeeId"`
	Type       string `json:"type" validate:"required,oneof=Annual Sick Unpaid Emergency"`
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate" validate:"required"`
	Reason     string `json:"reason" validate:"max=500"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload submitRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	own, scoped := ownEmployee(user)
	if !scoped && strings.TrimSpace(payload.EmployeeID) == "" {
		v.Add("employeeId", "is required")
	}
	if v.Reject(w, reqID) {
		return
	}

	employeeID := strings.TrimSpace(payload.EmployeeID)
	if scoped {
		if own == "" || (employeeID != "" && employeeID != own) {
			failForbidden(w, r, own)
			return
		}
		employeeID = own
	}

	result, err := h.Service.Submit(r.Context(), user.TenantID, leave.NewRequest{
		EmployeeID: employeeID,
		Type:       payload.Type,
		StartDate:  start,
		EndDate:    end,
		Reason:     strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		writeError(w, r, err, "leave_submit_failed", "leave request not saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "leave.request.submit", "leave_request", result.Request.ID, nil, result.Request)
	api.Created(w, result, reqID)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	query := r.URL.Query()
	employeeID := strings.TrimSpace(query.Get("employeeId"))
	if own, scoped := ownEmployee(user); scoped {
		if own == "" || (employeeID != "" && employeeID != own) {
			failForbidden(w, r, own)
			return
		}
		employeeID = own
	}
	result, err := h.Service.List(r.Context(), user.TenantID, leave.RequestFilter{
		EmployeeID: employeeID,
		Status:     strings.ToUpper(strings.TrimSpace(query.Get("status"))),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		writeError(w, r, err, "leave_list_failed", "failed to list leave requests")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, r, err, "leave_get_failed", "failed to load leave request")
		return
	}
	if own, scoped := ownEmployee(user); scoped && (own == "" || req.EmployeeID != own) {
		failForbidden(w, r, own)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, true)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, false)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, approve bool) {
	user, _ := middleware.GetUser(r.Context())
	action := "leave.request.reject"
	if approve {
		action = "leave.request.approve"
	}

	resolved, err := h.Service.Resolve(r.Context(), user.TenantID, chi.URLParam(r, "requestID"), approve, user.UserID)
	if err != nil {
		writeError(w, r, err, "leave_resolve_failed", "leave decision not saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, action, "leave_request", resolved.ID,
		map[string]string{"status": leave.StatusPending}, map[string]string{"status": resolved.Status})
	api.Success(w, resolved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if own, scoped := ownEmployee(user); scoped && (own == "" || employeeID != own) {
		failForbidden(w, r, own)
		return
	}
	balance, err := h.Service.Balance(r.Context(), user.TenantID, employeeID)
	if err != nil {
		writeError(w, r, err, "leave_balance_failed", "failed to load leave balance")
		return
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	days, err := h.Service.Allowance(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, r, err, "leave_settings_failed", "failed to load leave settings")
		return
	}
	api.Success(w, map[string]int{"annualAllowance": days}, middleware.GetRequestID(r.Context()))
}

type settingsRequest struct {
	AnnualAllowance *int `json:"annualAllowance" validate:"required,min=0,max=366"`
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload settingsRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	before, err := h.Service.Allowance(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, r, err, "leave_settings_failed", "leave settings not saved")
		return
	}
	if err := h.Service.SetAllowance(r.Context(), user.TenantID, *payload.AnnualAllowance); err != nil {
		writeError(w, r, err, "leave_settings_failed", "leave settings not saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "leave.settings.update", "tenant_settings", user.TenantID,
		map[string]int{"annualAllowance": before}, map[string]int{"annualAllowance": *payload.AnnualAllowance})
	api.Success(w, map[string]int{"annualAllowance": *payload.AnnualAllowance}, reqID)
}
