package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/covecrm/cove/internal/api/response"
)

// Recovery converts a handler panic into a structured 500 response so one
// bad request never takes the process down.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				requestID := GetRequestID(r.Context())
				slog.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
					"requestId", requestID,
					"stack", string(debug.Stack()),
				)
				response.Err(w, http.StatusInternalServerError, "An unexpected error occurred", requestID)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
