package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/galva-ai/backend/internal/account"
	"github.com/galva-ai/backend/internal/auth"
	"github.com/galva-ai/backend/internal/config"
	"github.com/galva-ai/backend/internal/httputil"
	"github.com/galva-ai/backend/internal/logging"
)

// NewRouter creates and configures the HTTP router. Paths and methods follow
// the legacy API contract. The /all listing is auth-gated, a deliberate
// deviation from the legacy surface where it was public.
func NewRouter(cfg *config.Config, accountHandler *account.Handler, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: false,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(RecoverJSON) // after the logger so panics log with request context
	r.Use(middleware.Compress(5))

	// Public routes
	r.Get("/", handleRoot)
	r.Post("/signup", accountHandler.Signup)
	r.Post("/signin", accountHandler.Signin)
	r.Get("/verify/{token}", accountHandler.Verify)
	r.Post("/forgot", accountHandler.ForgotPassword)
	r.Put("/reset/{token}", accountHandler.ResetPassword)
	r.Post("/resend", accountHandler.ResendVerification)

	// Protected routes (require a bearer token)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Get("/me", accountHandler.Me)
		r.Get("/all", accountHandler.List)
		r.Delete("/delete", accountHandler.Delete)
		r.Put("/update", accountHandler.UpdatePassword)
	})

	return r
}

// handleRoot is the liveness endpoint.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	httputil.RespondMessage(w, "server running", http.StatusOK)
}
