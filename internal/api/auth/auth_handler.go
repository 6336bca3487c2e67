package auth

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
)

type AuthHandler struct {
	AuthService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		AuthService: authService,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}

	if result.VerificationRequired {
		api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{
			VerificationRequired: true,
			User:                 result.User,
			Message:              "verification required",
		})
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{
		Token:   result.Token,
		User:    result.User,
		Message: "Login successful",
	})
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Email, req.Password, req.Profile)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, user)
}

// Me handles GET /auth/me, resolving the bearer token to the current user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := BearerToken(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
		return
	}
	user, err := h.AuthService.GetCurrentUser(r.Context(), token)
	if err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// Logout handles POST /auth/logout. Idempotent: logging out a dead session
// still reports success.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := BearerToken(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
		return
	}
	if err := h.AuthService.DestroySession(r.Context(), token); err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, Response{Success: true, Message: "Logged out"})
}

// ForgotPassword handles POST /auth/forgot-password. Always answers 200 so
// account existence is not disclosed.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.AuthService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.ErrorContext(r.Context(), "Password reset request failed", slog.Any("error", err))
	}
	api.WriteJSONResponse(w, r, http.StatusOK, Response{Success: true, Message: "If the account exists, a code was sent"})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.AuthService.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		api.DomainErrorResponse(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, Response{Success: true, Message: "Password updated"})
}
