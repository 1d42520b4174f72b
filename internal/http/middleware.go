package http

import (
	"net/http"

	"github.com/galva-ai/backend/internal/httputil"
	"github.com/galva-ai/backend/internal/logging"
)

// SecurityHeaders adds security-related headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		next.ServeHTTP(w, r)
	})
}

// RecoverJSON catches panics anywhere in the request path and answers with
// the deliberately opaque legacy failure body. Details go to the log only.
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger := logging.GetLoggerFromContext(r.Context())
				logger.Error("panic recovered", "panic", rec, "path", r.URL.Path)
				httputil.RespondMessage(w, "something went wrong", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
