package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/galva-ai/backend/internal/auth"
	"github.com/galva-ai/backend/internal/httputil"
	"github.com/galva-ai/backend/internal/logging"
)

// Handler contains the HTTP handlers for the account lifecycle endpoints.
// Paths, status codes, and response messages follow the legacy API contract,
// including 411 for validation failures.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type signupRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

// Signup handles POST /signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		respondError(w, "incorrect inputs", httputil.CodeInvalidRequestBody, http.StatusLengthRequired)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	err := h.service.Signup(r.Context(), req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			logger.Warn("signup failed: validation error", "error", err.Error())
			respondError(w, "incorrect inputs", httputil.CodeInvalidInput, http.StatusLengthRequired)
			return
		}
		if errors.Is(err, ErrDuplicateEmail) {
			logger.Warn("signup failed: email already exists")
			respondError(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusLengthRequired)
			return
		}
		logger.Error("signup failed: internal error", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("account created, verification pending")
	httputil.RespondMessage(w, "user created. please verify email.", http.StatusOK)
}

// Signin handles POST /signin.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signin request body", "error", err.Error())
		respondError(w, "incorrect email or password", httputil.CodeInvalidRequestBody, http.StatusLengthRequired)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	token, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			logger.Warn("signin failed: validation error", "error", err.Error())
			respondError(w, "incorrect email or password", httputil.CodeInvalidInput, http.StatusLengthRequired)
			return
		}
		if errors.Is(err, ErrNotVerified) {
			logger.Warn("signin failed: account not verified")
			respondError(w, "please verify email", httputil.CodeEmailNotVerified, http.StatusForbidden)
			return
		}
		if errors.Is(err, ErrNotFound) {
			logger.Warn("signin failed: no matching account")
			respondError(w, "no user exists", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("signin failed: internal error", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("account signed in")
	httputil.RespondJSON(w, map[string]string{"token": token}, http.StatusOK)
}

// Verify handles GET /verify/{token}.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := chi.URLParam(r, "token")

	if err := h.service.Verify(r.Context(), token); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			logger.Warn("verification failed: invalid token")
			respondError(w, "incorrect token", httputil.CodeInvalidToken, http.StatusNotFound)
			return
		}
		logger.Error("verification failed: internal error", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("account verified")
	httputil.RespondMessage(w, "email verified. please signin", http.StatusOK)
}

// ForgotPassword handles POST /forgot.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "incorrect email", httputil.CodeInvalidRequestBody, http.StatusNotFound)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("forgot password failed: unknown email")
			respondError(w, "incorrect email", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("forgot password failed: internal error", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset email queued")
	httputil.RespondMessage(w, "please check email to reset password", http.StatusOK)
}

// ResetPassword handles PUT /reset/{token}.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := chi.URLParam(r, "token")

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "incorrect inputs", httputil.CodeInvalidRequestBody, http.StatusLengthRequired)
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, req.Password); err != nil {
		if errors.Is(err, ErrInvalidInput) {
			logger.Warn("password reset failed: validation error", "error", err.Error())
			respondError(w, "incorrect inputs", httputil.CodeInvalidInput, http.StatusLengthRequired)
			return
		}
		if errors.Is(err, ErrInvalidToken) {
			logger.Warn("password reset failed: invalid token")
			respondError(w, "incorrect token", httputil.CodeInvalidToken, http.StatusNotFound)
			return
		}
		logger.Error("password reset failed: internal error", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset")
	httputil.RespondMessage(w, "password updated", http.StatusOK)
}

// ResendVerification handles POST /resend.
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend verification request body", "error", err.Error())
		respondError(w, "incorrect email", httputil.CodeInvalidRequestBody, http.StatusNotFound)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("resend verification failed: unknown email")
			respondError(w, "incorrect email", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("resend verification failed: internal error", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("verification email queued")
	httputil.RespondMessage(w, "email sent. please verify", http.StatusOK)
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	accountID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "not logged in", httputil.CodeMissingAuth, http.StatusForbidden)
		return
	}

	profile, err := h.service.Profile(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("profile lookup failed: account gone", "account_id", accountID)
			respondError(w, "no user exists", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("profile lookup failed: internal error", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]*Profile{"user": profile}, http.StatusOK)
}

// List handles GET /all. The legacy endpoint was unauthenticated and dumped
// full records; it now sits behind auth and returns summaries.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	summaries, err := h.service.List(r.Context())
	if err != nil {
		logger.Error("account listing failed", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string][]Summary{"users": summaries}, http.StatusOK)
}

// Delete handles DELETE /delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	accountID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "not logged in", httputil.CodeMissingAuth, http.StatusForbidden)
		return
	}

	if err := h.service.Delete(r.Context(), accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("delete failed: account gone", "account_id", accountID)
			respondError(w, "no user exists", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("delete failed: internal error", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("account deleted", "account_id", accountID)
	httputil.RespondMessage(w, "user deleted", http.StatusOK)
}

// UpdatePassword handles PUT /update. Like the legacy service, an unknown
// account id surfaces as an authorization-shaped 403 rather than a 404.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	accountID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "not logged in", httputil.CodeMissingAuth, http.StatusForbidden)
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update password request body", "error", err.Error())
		respondError(w, "incorrect inputs", httputil.CodeInvalidRequestBody, http.StatusLengthRequired)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), accountID, req.Password); err != nil {
		if errors.Is(err, ErrInvalidInput) {
			logger.Warn("update password failed: validation error", "error", err.Error())
			respondError(w, "incorrect inputs", httputil.CodeInvalidInput, http.StatusLengthRequired)
			return
		}
		if errors.Is(err, ErrNotFound) {
			logger.Warn("update password failed: account gone", "account_id", accountID)
			respondError(w, "incorrect headers", httputil.CodeNotFound, http.StatusForbidden)
			return
		}
		logger.Error("update password failed: internal error", "error", err.Error())
		respondError(w, "something went wrong", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password updated", "account_id", accountID)
	httputil.RespondMessage(w, "password updated", http.StatusOK)
}

func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
