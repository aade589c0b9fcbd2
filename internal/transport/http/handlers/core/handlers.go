package corehandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/core"
	"hrconsole/internal/platform/logging"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Perms   middleware.PermissionChecker
	Audit   audit.Recorder
}

func NewHandler(service *core.Service, perms middleware.PermissionChecker, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/salary", h.handleUpdateSalary)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/status", h.handleSetStatus)
			r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/integrity-score", h.handleSetIntegrityScore)
		})
	})
	r.Route("/loans", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleListLoans)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/", h.handleCreateLoan)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/{loanID}/close", h.handleCloseLoan)
	})
}

// writeError maps core errors onto the API envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", err.Error(), reqID)
	case errors.Is(err, core.ErrLoanNotFound):
		api.Fail(w, http.StatusNotFound, "loan_not_found", err.Error(), reqID)
	case errors.Is(err, core.ErrDuplicateEmail):
		api.Fail(w, http.StatusConflict, "employee_exists", err.Error(), reqID)
	case errors.Is(err, core.ErrLoanClosed):
		api.Fail(w, http.StatusConflict, "loan_closed", err.Error(), reqID)
	case errors.Is(err, core.ErrInvalidSalary),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrInvalidInstallment),
		errors.Is(err, core.ErrInvalidScore):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		logging.FromContext(r.Context()).Error().Err(err).Str("code", code).Msg(message)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := core.EmployeeFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	employees, total, err := h.Service.ListEmployees(r.Context(), user.TenantID, filter)
	if err != nil {
		writeError(w, r, err, "employee_list_failed", "failed to list employees")
		return
	}
	for i := range employees {
		core.FilterEmployeeFields(&employees[i], user)
	}
	api.Success(w, map[string]any{"items": employees, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.GetEmployee(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err, "employee_get_failed", "failed to load employee")
		return
	}
	core.FilterEmployeeFields(&emp, user)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

type createEmployeeRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Department  string `json:"department" validate:"max=100"`
	BasicSalary string `json:"basicSalary"`
	HireDate    string `json:"hireDate"`
	TaxID       string `json:"taxId" validate:"max=64"`
	BankAccount string `json:"bankAccount" validate:"max=64"`
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload createEmployeeRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	emp := core.Employee{
		Name:        payload.Name,
		Email:       payload.Email,
		Department:  strings.TrimSpace(payload.Department),
		TaxID:       strings.TrimSpace(payload.TaxID),
		BankAccount: strings.TrimSpace(payload.BankAccount),
	}
	if strings.TrimSpace(payload.BasicSalary) != "" {
		salary := v.Decimal("basicSalary", payload.BasicSalary)
		emp.BasicSalary = &salary
	}
	if strings.TrimSpace(payload.HireDate) != "" {
		if hired, ok := v.Date("hireDate", payload.HireDate); ok {
			emp.HireDate = &hired
		}
	}
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.CreateEmployee(r.Context(), user.TenantID, emp)
	if err != nil {
		writeError(w, r, err, "employee_create_failed", "employee not saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.employee.create", "employee", created.ID, nil, created)
	api.Created(w, created, reqID)
}

type salaryRequest struct {
	BasicSalary string `json:"basicSalary" validate:"required"`
}

func (h *Handler) handleUpdateSalary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload salaryRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	salary := v.Decimal("basicSalary", payload.BasicSalary)
	if v.Reject(w, reqID) {
		return
	}

	before, after, err := h.Service.UpdateSalary(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"), salary)
	if err != nil {
		writeError(w, r, err, "salary_update_failed", "salary not saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.employee.salary", "employee", after.ID,
		map[string]any{"basicSalary": before.BasicSalary}, map[string]any{"basicSalary": after.BasicSalary})
	api.Success(w, after, reqID)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload statusRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	updated, err := h.Service.SetStatus(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"), payload.Status)
	if err != nil {
		writeError(w, r, err, "status_update_failed", "status not saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.employee.status", "employee", updated.ID, nil, map[string]string{"status": updated.Status})
	api.Success(w, updated, reqID)
}

type integrityScoreRequest struct {
	Score *int `json:"score" validate:"required,min=0,max=100"`
}

func (h *Handler) handleSetIntegrityScore(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload integrityScoreRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	score, err := h.Service.SetIntegrityScore(r.Context(), user.TenantID, chi.URLParam(r, "employeeID"), *payload.Score)
	if err != nil {
		writeError(w, r, err, "integrity_score_failed", "integrity score not saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.integrity_score.set", "employee", score.EmployeeID, nil, score)
	api.Success(w, score, reqID)
}

func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	query := r.URL.Query()
	loans, err := h.Service.ListLoans(r.Context(), user.TenantID, strings.TrimSpace(query.Get("employeeId")), strings.ToUpper(strings.TrimSpace(query.Get("status"))))
	if err != nil {
		writeError(w, r, err, "loan_list_failed", "failed to list loans")
		return
	}
	api.Success(w, loans, middleware.GetRequestID(r.Context()))
}

type createLoanRequest struct {
	EmployeeID         string `json:"employeeId" validate:"required"`
	MonthlyInstallment string `json:"monthlyInstallment" validate:"required"`
}

func (h *Handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload createLoanRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	installment := v.Decimal("monthlyInstallment", payload.MonthlyInstallment)
	if v.Reject(w, reqID) {
		return
	}

	loan, err := h.Service.CreateLoan(r.Context(), user.TenantID, payload.EmployeeID, installment)
	if err != nil {
		writeError(w, r, err, "loan_create_failed", "loan not saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.loan.create", "loan", loan.ID, nil, loan)
	api.Created(w, loan, reqID)
}

func (h *Handler) handleCloseLoan(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	loan, err := h.Service.CloseLoan(r.Context(), user.TenantID, chi.URLParam(r, "loanID"))
	if err != nil {
		writeError(w, r, err, "loan_close_failed", "loan not closed")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "core.loan.close", "loan", loan.ID,
		map[string]string{"status": core.LoanStatusActive}, map[string]string{"status": loan.Status})
	api.Success(w, loan, middleware.GetRequestID(r.Context()))
}
