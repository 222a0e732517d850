package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "webinars/pkg/errors"
	httputil "webinars/pkg/http"
	"webinars/pkg/logger"
)

// Recovery turns a handler panic into a 500. http.ErrAbortHandler is re-raised
// so the server can drop the connection as it expects.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				requestID := RequestIDFrom(r.Context())
				log.Error("Panic recovered",
					"request_id", requestID,
					"error", fmt.Sprint(rec),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				appErr := apperrors.Internal("Internal server error", nil)
				if requestID != "" {
					appErr = appErr.WithDetails(map[string]any{"request_id": requestID})
				}
				httputil.WriteError(w, appErr)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
