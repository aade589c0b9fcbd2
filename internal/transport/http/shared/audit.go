package shared

import (
	"net/http"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/platform/logging"
	"hrconsole/internal/platform/requestctx"
)

// RecordAudit stores an audit event for a completed write. Failures are
// logged and never fail the request.
func RecordAudit(r *http.Request, recorder audit.Recorder, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	ctx := r.Context()
	err := recorder.Record(ctx, audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
		IP:         ClientIP(r),
		Before:     before,
		After:      after,
	})
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("action", action).Str("entityId", entityID).Msg("audit record failed")
	}
}
