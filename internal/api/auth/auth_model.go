package auth

import (
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

// LoginRequest represents the expected JSON body for user login.
type LoginRequest struct {
	Email    string `json:"email" example:"student@demo.com"`
	Password string `json:"password" example:"password123"`
}

// LoginResponse represents the successful JSON response after login. When
// the account requires a second factor no token is issued and
// VerificationRequired is set instead.
type LoginResponse struct {
	Token                string          `json:"token,omitempty"`
	VerificationRequired bool            `json:"verificationRequired,omitempty"`
	User                 *types.UserView `json:"user,omitempty"`
	Message              string          `json:"message,omitempty"`
}

// RegisterRequest represents the expected JSON body for user registration.
// Profile carries the optional extra user fields (name, avatarUrl, bio, ...)
// validated against the users schema.
type RegisterRequest struct {
	Email    string       `json:"email" example:"newuser@example.com"`
	Password string       `json:"password" example:"Str0ngP@ss!"`
	Profile  types.Record `json:"profile,omitempty"`
}

// ForgotPasswordRequest asks for a reset passcode to be issued.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest redeems a passcode for a new password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Generic response for simple success/error messages.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LoginResult is the service-level outcome of a login attempt.
type LoginResult struct {
	Token                string
	VerificationRequired bool
	User                 *types.UserView
}

// userView projects a users record into the safe external shape. The
// password hash never leaves this package.
func userView(r types.Record) *types.UserView {
	return &types.UserView{
		ID:        r.ID(),
		Email:     r.String("email"),
		Name:      r.String("name"),
		Role:      r.String("role"),
		AvatarURL: r.String("avatarUrl"),
		CreatedAt: r.String(types.FieldCreatedAt),
		UpdatedAt: r.String(types.FieldUpdatedAt),
	}
}
