package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-lms-sdk/app/observability/metrics"
	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/store"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for identity operations.
// It is built on the record store's users collection plus the process-local
// session cache; it owns password hashing, session issuance/destruction and
// OTP-based password recovery.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, email, password string, profile types.Record) (*types.UserView, error)
	GetCurrentUser(ctx context.Context, token string) (*types.UserView, error)
	DestroySession(ctx context.Context, token string) error
	HashPassword(plaintext string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger   *slog.Logger
	records  store.RecordStore
	sessions *SessionCache
	otps     *otpStore
	notifier Notifier
	metrics  *metrics.AppMetrics
}

// NewAuthService creates a new auth service instance. sessionTTL and otpTTL
// come from configuration; notifier may be nil, in which case issued codes
// are only logged.
func NewAuthService(records store.RecordStore, sessionTTL, otpTTL time.Duration, notifier Notifier, logger *slog.Logger) *AuthServiceImpl {
	if notifier == nil {
		notifier = &LogNotifier{Logger: logger}
	}
	return &AuthServiceImpl{
		logger:   logger,
		records:  records,
		sessions: NewSessionCache(sessionTTL),
		otps:     newOTPStore(otpTTL),
		notifier: notifier,
		metrics:  metrics.Get(),
	}
}

// Login authenticates by case-insensitive email and password. Accounts with
// mfaEnabled short-circuit to a verification-required result carrying no
// token. A wrong email and a wrong password are indistinguishable to the
// caller.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := s.logger.With(slog.String("method", "Login"))
	if s.metrics != nil {
		s.metrics.LoginRequestsTotal.Add(ctx, 1)
	}

	user, err := s.findUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		l.WarnContext(ctx, "Login attempt for unknown email")
		return nil, api.ErrUnauthenticated
	}

	hash := user.String("passwordHash")
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		l.WarnContext(ctx, "Login attempt with wrong password", slog.String("userID", user.ID()))
		return nil, api.ErrUnauthenticated
	}

	if mfa, _ := user["mfaEnabled"].(bool); mfa {
		l.InfoContext(ctx, "Login requires second factor", slog.String("userID", user.ID()))
		return &LoginResult{VerificationRequired: true, User: userView(user)}, nil
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	s.sessions.Put(types.Session{Token: token, UserID: user.ID(), IssuedAt: time.Now().UTC()})

	l.InfoContext(ctx, "Login successful", slog.String("userID", user.ID()))
	return &LoginResult{Token: token, User: userView(user)}, nil
}

// Register creates a new user through the record store so the users schema's
// defaults apply. The email must not be taken, compared case-insensitively;
// the check runs inside the commit so two interleaved registrations of the
// same email cannot both land.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string, profile types.Record) (*types.UserView, error) {
	l := s.logger.With(slog.String("method", "Register"))

	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	partial := profile.Clone()
	if partial == nil {
		partial = types.Record{}
	}
	partial["email"] = normalized
	partial["passwordHash"] = hash

	emailFree := func(current []types.Record) error {
		for _, r := range current {
			if strings.EqualFold(r.String("email"), normalized) {
				return fmt.Errorf("email %q: %w", normalized, api.ErrAlreadyExists)
			}
		}
		return nil
	}

	created, err := s.records.CreateWith(ctx, types.UsersCollection, partial, emailFree)
	if err != nil {
		if errors.Is(err, api.ErrAlreadyExists) {
			l.WarnContext(ctx, "Registration with taken email")
		} else {
			l.ErrorContext(ctx, "Failed to create user record", slog.Any("error", err))
		}
		return nil, err
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", created.ID()))
	return userView(created), nil
}

// GetCurrentUser resolves a session token to its user, failing with
// api.ErrSessionInvalid for unknown or expired tokens.
func (s *AuthServiceImpl) GetCurrentUser(ctx context.Context, token string) (*types.UserView, error) {
	session, ok := s.sessions.Resolve(token)
	if !ok {
		return nil, api.ErrSessionInvalid
	}

	user, err := s.records.Read(ctx, types.UsersCollection, session.UserID)
	if err != nil {
		// The user record vanished under an active session; treat the
		// session as invalid rather than leaking a NotFound.
		s.sessions.Destroy(token)
		return nil, api.ErrSessionInvalid
	}
	return userView(user), nil
}

// DestroySession removes the session; destroying an already-gone session is
// not an error.
func (s *AuthServiceImpl) DestroySession(_ context.Context, token string) error {
	s.sessions.Destroy(token)
	return nil
}

// HashPassword returns the bcrypt hash of plaintext.
func (s *AuthServiceImpl) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// RequestPasswordReset issues a time-limited, single-use OTP and hands
// delivery to the notifier collaborator. Whether the email exists is not
// revealed to the caller.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	l := s.logger.With(slog.String("method", "RequestPasswordReset"))

	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.findUserByEmail(ctx, normalized)
	if err != nil {
		return err
	}
	if user == nil {
		// Do not reveal account existence; succeed silently.
		l.InfoContext(ctx, "Password reset requested for unknown email")
		return nil
	}

	code, expiresAt, err := s.otps.Create(normalized)
	if err != nil {
		return err
	}
	if err := s.notifier.SendPasswordResetOTP(ctx, normalized, code, expiresAt); err != nil {
		l.ErrorContext(ctx, "Failed to hand off OTP delivery", slog.Any("error", err))
		return fmt.Errorf("deliver password reset code: %w", err)
	}

	l.InfoContext(ctx, "Password reset OTP issued", slog.String("userID", user.ID()))
	return nil
}

// ResetPassword redeems an OTP: on success the stored hash is replaced and
// every outstanding session for the user is invalidated. A mismatched or
// expired code changes nothing.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	l := s.logger.With(slog.String("method", "ResetPassword"))

	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	if err := s.otps.Consume(normalized, otp); err != nil {
		l.WarnContext(ctx, "Password reset rejected", slog.Any("error", err))
		return err
	}

	user, err := s.findUserByEmail(ctx, normalized)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %q: %w", normalized, api.ErrNotFound)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.records.Update(ctx, types.UsersCollection, user.ID(), types.Record{"passwordHash": hash}); err != nil {
		l.ErrorContext(ctx, "Failed to update password hash", slog.Any("error", err))
		return err
	}

	s.sessions.DestroyAllForUser(user.ID())
	l.InfoContext(ctx, "Password reset completed, sessions invalidated", slog.String("userID", user.ID()))
	return nil
}

// findUserByEmail scans the users collection for a case-insensitive email
// match. Returns nil without error when no user matches.
func (s *AuthServiceImpl) findUserByEmail(ctx context.Context, email string) (types.Record, error) {
	needle := strings.TrimSpace(strings.ToLower(email))
	matches, err := s.records.List(ctx, types.UsersCollection, func(r types.Record) bool {
		return strings.ToLower(r.String("email")) == needle
	})
	if err != nil {
		return nil, fmt.Errorf("error looking up user by email: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}
