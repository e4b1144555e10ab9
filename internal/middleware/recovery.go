package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"statusboard/internal/httputil"
)

// Recovery turns a handler panic into a 500 problem response.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", httputil.GetRequestID(r),
					"stack", string(debug.Stack()),
				)

				p := httputil.NewProblem(http.StatusInternalServerError, "internal server error")
				p.Instance = httputil.GetRequestID(r)
				httputil.RespondProblem(w, p)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
