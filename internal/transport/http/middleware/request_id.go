package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"thodemy/internal/platform/requestctx"
	"thodemy/internal/transport/http/shared"
)

// RequestID tags every request with an id (reusing X-Request-ID when the
// caller sent one) and records the client address for audit records.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.With(r.Context(), requestctx.Meta{
			RequestID: reqID,
			ClientIP:  shared.ClientIP(r),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
