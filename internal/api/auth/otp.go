package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
)

// Notifier delivers the passcode to the user. Delivery (email, SMS, in-app)
// is an external collaborator; the default implementation only logs that a
// code was issued.
type Notifier interface {
	SendPasswordResetOTP(ctx context.Context, email, code string, expiresAt time.Time) error
}

// LogNotifier is the fallback Notifier for environments without a delivery
// channel. It never logs the code itself.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) SendPasswordResetOTP(ctx context.Context, email string, _ string, expiresAt time.Time) error {
	n.Logger.InfoContext(ctx, "Password reset OTP issued",
		slog.String("email", maskEmail(email)), slog.Time("expires_at", expiresAt))
	return nil
}

// otpRequest is one outstanding password-reset request: single-use, consumed
// or expired, never reused. The code is bcrypt-hashed at rest.
type otpRequest struct {
	codeHash  string
	expiresAt time.Time
}

// otpStore keeps outstanding requests keyed by normalized email. Entries
// persist slightly past their deadline so an expired code can be reported as
// expired rather than merely unknown.
type otpStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

func newOTPStore(ttl time.Duration) *otpStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &otpStore{
		cache: gocache.New(ttl+time.Minute, 5*time.Minute),
		ttl:   ttl,
	}
}

// Create issues a fresh 6-digit code for email, replacing any outstanding
// request. Returns the plaintext code (for the Notifier) and its deadline.
func (s *otpStore) Create(email string) (string, time.Time, error) {
	code, err := generateNumericCode(6)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("hash otp: %w", err)
	}
	expiresAt := time.Now().UTC().Add(s.ttl)
	s.cache.SetDefault(email, otpRequest{codeHash: string(hash), expiresAt: expiresAt})
	return code, expiresAt, nil
}

// Consume verifies code against the outstanding request for email and, on
// success, removes it so it can never be used twice.
func (s *otpStore) Consume(email, code string) error {
	v, ok := s.cache.Get(email)
	if !ok {
		return api.ErrInvalidOTP
	}
	req := v.(otpRequest)
	if time.Now().UTC().After(req.expiresAt) {
		s.cache.Delete(email)
		return api.ErrExpiredOTP
	}
	if bcrypt.CompareHashAndPassword([]byte(req.codeHash), []byte(code)) != nil {
		return api.ErrInvalidOTP
	}
	s.cache.Delete(email)
	return nil
}

func generateNumericCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func maskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || len(parts[0]) < 2 {
		return "***"
	}
	return parts[0][:1] + "***@" + parts[1]
}

// normalizeEmail lowercases and trims; email uniqueness and lookup are
// case-insensitive everywhere.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", errors.New("email is required")
	}
	return email, nil
}
