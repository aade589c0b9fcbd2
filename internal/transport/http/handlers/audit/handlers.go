package audithandler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/platform/logging"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

type Reader interface {
	Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error)
	List(ctx context.Context, tenantID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Reader Reader
	Perms  middleware.PermissionChecker
}

func NewHandler(reader Reader, perms middleware.PermissionChecker) *Handler {
	return &Handler{Reader: reader, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	filter := audit.Filter{
		Action:     strings.TrimSpace(query.Get("action")),
		EntityType: strings.TrimSpace(query.Get("entityType")),
		ActorUser:  strings.TrimSpace(query.Get("actorUserId")),
	}
	includeDetails, _ := strconv.ParseBool(query.Get("details"))
	page := shared.ParsePagination(r, 50, 200)

	total, err := h.Reader.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("audit count failed")
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	events, err := h.Reader.List(r.Context(), user.TenantID, filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("audit list failed")
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	api.Success(w, map[string]any{"items": events, "total": total}, reqID)
}
