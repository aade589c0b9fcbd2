package payrollhandler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/payroll"
	"hrconsole/internal/platform/logging"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	Service     *payroll.Service
	Perms       middleware.PermissionChecker
	Audit       audit.Recorder
	CalcTimeout time.Duration
	CompanyName string
}

func NewHandler(service *payroll.Service, perms middleware.PermissionChecker, auditSvc audit.Recorder, calcTimeout time.Duration, companyName string) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, CalcTimeout: calcTimeout, CompanyName: companyName}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRun, h.Perms)).Post("/calculate", h.handleCalculate)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/batches", h.handleListBatches)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/batches/open", h.handleOpenBatch)
		r.Route("/batches/{batchID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleBatchDetail)
			r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/inputs", h.handleListInputs)
			r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/inputs/{employeeID}", h.handleSetInput)
			r.With(middleware.RequirePermission(auth.PermPayrollFinalize, h.Perms)).Post("/finalize", h.handleFinalize)
			r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/export", h.handleExport)
			r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/payslips/{employeeID}", h.handlePayslip)
		})
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrBatchNotFound):
		api.Fail(w, http.StatusNotFound, "batch_not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrNoOpenBatch):
		api.Fail(w, http.StatusNotFound, "no_open_batch", err.Error(), reqID)
	case errors.Is(err, payroll.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "record_not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", err.Error(), reqID)
	case errors.Is(err, payroll.ErrNegativeInput):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	case errors.Is(err, payroll.ErrBatchFinalized):
		api.Fail(w, http.StatusConflict, "batch_finalized", err.Error(), reqID)
	case errors.Is(err, payroll.ErrBatchConflict):
		api.Fail(w, http.StatusConflict, "batch_conflict", err.Error(), reqID)
	case errors.Is(err, payroll.ErrCalculationInProgress):
		api.Fail(w, http.StatusConflict, "calculation_in_progress", err.Error(), reqID)
	case errors.Is(err, payroll.ErrFinalizeInvalidState), errors.Is(err, payroll.ErrFinalizeNoRecords):
		api.Fail(w, http.StatusConflict, "finalize_invalid_state", err.Error(), reqID)
	case errors.Is(err, context.DeadlineExceeded):
		api.Fail(w, http.StatusGatewayTimeout, "timeout", message+": timed out, nothing was saved", reqID)
	default:
		logging.FromContext(r.Context()).Error().Err(err).Str("code", code).Msg(message)
		api.Fail(w, http.StatusInternalServerError, code, message, reqID)
	}
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	ctx := r.Context()
	if h.CalcTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.CalcTimeout)
		defer cancel()
	}

	result, err := h.Service.Calculate(ctx, user.TenantID)
	if err != nil {
		writeError(w, r, err, "calculation_failed", "payroll calculation failed, nothing was saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "payroll.calculate", "payroll_batch", result.Batch.ID, nil, map[string]any{
		"totalAmount":   result.Totals.TotalAmount,
		"employeeCount": result.Totals.EmployeeCount,
		"skipped":       len(result.Skipped),
		"version":       result.Batch.Version,
	})
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListBatches(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 20, 100)
	batches, total, err := h.Service.ListBatches(r.Context(), user.TenantID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err, "batch_list_failed", "failed to list payroll batches")
		return
	}
	api.Success(w, map[string]any{"items": batches, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOpenBatch(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	batch, err := h.Service.OpenBatch(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, r, err, "batch_get_failed", "failed to load open batch")
		return
	}
	api.Success(w, batch, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBatchDetail(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	detail, err := h.Service.BatchDetail(r.Context(), user.TenantID, chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, r, err, "batch_get_failed", "failed to load payroll batch")
		return
	}
	api.Success(w, detail, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListInputs(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	inputs, err := h.Service.ListInputs(r.Context(), user.TenantID, chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, r, err, "input_list_failed", "failed to list payroll inputs")
		return
	}
	api.Success(w, inputs, middleware.GetRequestID(r.Context()))
}

type inputRequest struct {
	OvertimeHours        string `json:"overtimeHours"`
	Allowances           string `json:"allowances"`
	BehavioralDeductions string `json:"behavioralDeductions"`
}

func (h *Handler) handleSetInput(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	var payload inputRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	input := payroll.Input{
		EmployeeID:           chi.URLParam(r, "employeeID"),
		OvertimeHours:        v.Decimal("overtimeHours", payload.OvertimeHours),
		Allowances:           v.Decimal("allowances", payload.Allowances),
		BehavioralDeductions: v.Decimal("behavioralDeductions", payload.BehavioralDeductions),
	}
	if v.Reject(w, reqID) {
		return
	}

	batchID := chi.URLParam(r, "batchID")
	saved, err := h.Service.SetInput(r.Context(), user.TenantID, batchID, input)
	if err != nil {
		writeError(w, r, err, "input_save_failed", "payroll input not saved")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "payroll.input.set", "payroll_batch", batchID, nil, saved)
	api.Success(w, saved, reqID)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	batch, err := h.Service.Finalize(r.Context(), user.TenantID, chi.URLParam(r, "batchID"))
	if err != nil {
		writeError(w, r, err, "finalize_failed", "payroll batch not finalized")
		return
	}
	shared.RecordAudit(r, h.Audit, user, "payroll.finalize", "payroll_batch", batch.ID,
		map[string]string{"status": payroll.BatchStatusProcessing},
		map[string]any{"status": batch.Status, "totalAmount": batch.TotalAmount})
	api.Success(w, batch, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	batchID := chi.URLParam(r, "batchID")
	body, err := h.Service.ExportRegister(r.Context(), user.TenantID, batchID)
	if err != nil {
		writeError(w, r, err, "export_failed", "failed to export payroll register")
		return
	}
	api.Attachment(w, xlsxContentType, "payroll-register-"+batchID+".xlsx", body)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	batchID := chi.URLParam(r, "batchID")
	employeeID := chi.URLParam(r, "employeeID")
	body, err := h.Service.Payslip(r.Context(), user.TenantID, batchID, employeeID, h.CompanyName)
	if err != nil {
		writeError(w, r, err, "payslip_failed", "failed to render payslip")
		return
	}
	api.Attachment(w, "application/pdf", "payslip-"+batchID+"-"+employeeID+".pdf", body)
}
