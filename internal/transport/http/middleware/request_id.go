package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"hrconsole/internal/platform/logging"
	"hrconsole/internal/platform/requestctx"
)

// RequestID propagates or mints an X-Request-ID and attaches a request-scoped
// logger carrying it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.WithRequestID(r.Context(), reqID)
		ctx = logging.WithFields(ctx, map[string]any{"requestId": reqID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
