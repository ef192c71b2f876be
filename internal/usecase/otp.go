package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/config"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/logger"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/security"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository"
)

var (
	// ErrNoSuchUser indicates the identifier resolves to no account.
	ErrNoSuchUser = errors.New("no account for identifier")
	// ErrOTPNotFound indicates no code is pending for the identifier. This is
	// also the answer whenever the ephemeral store is disabled or the code
	// already expired.
	ErrOTPNotFound = errors.New("verification code not found")
	// ErrOTPMismatch indicates the submitted code does not match the pending one.
	ErrOTPMismatch = errors.New("verification code mismatch")
	// ErrInvalidOTPPurpose indicates an unknown verification channel.
	ErrInvalidOTPPurpose = errors.New("invalid verification purpose")
)

// ResendResult reports OTP issuance. DevCode is populated only in
// development environments so manual testing works without a mail or SMS
// pipeline; production delivery rides on the event bus.
type ResendResult struct {
	DevCode string
}

// OTPService issues and verifies short-lived contact verification codes.
type OTPService struct {
	cfg       config.AuthSettings
	dev       bool
	users     port.UserRepository
	otps      port.OTPStore
	publisher port.EventPublisher
	now       func() time.Time
}

// NewOTPService constructs an OTPService. dev enables echoing codes back in
// API responses.
func NewOTPService(
	cfg config.AuthSettings,
	dev bool,
	users port.UserRepository,
	otps port.OTPStore,
	publisher port.EventPublisher,
) *OTPService {
	return &OTPService{
		cfg:       cfg,
		dev:       dev,
		users:     users,
		otps:      otps,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *OTPService) WithClock(clock func() time.Time) {
	s.now = clock
}

// ResendOTP issues a fresh code for the identifier, replacing any pending
// one. Unknown identifiers get the same success answer as known ones so the
// endpoint cannot be used to probe for accounts.
func (s *OTPService) ResendOTP(ctx context.Context, identifier string, purpose domain.OTPPurpose) (*ResendResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("identifier is required")
	}
	if !domain.ValidOTPPurpose(purpose) {
		return nil, ErrInvalidOTPPurpose
	}

	if _, err := s.users.GetByIdentifier(ctx, identifier); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ResendResult{}, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	code, err := security.GenerateNumericCode(s.cfg.OTPLength)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	otp, err := s.otps.Store(ctx, purpose, identifier, code, s.cfg.OTPTTL)
	if err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}

	event := domain.OTPIssuedEvent{
		Purpose:    string(purpose),
		Identifier: identifier,
		Code:       code,
		IssuedAt:   otp.CreatedAt,
		ExpiresAt:  otp.ExpiresAt,
	}
	if err := s.publisher.PublishOTPIssued(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("publish otp issued event failed",
			zap.String("identifier", logger.MaskIdentifier(identifier)),
			zap.Error(err),
		)
	}

	result := &ResendResult{}
	if s.dev {
		result.DevCode = code
	}
	return result, nil
}

// VerifyOTP checks the submitted code against the pending one. A match marks
// the channel verified and consumes the code; a mismatch leaves the code in
// place so the user can retry within the TTL.
func (s *OTPService) VerifyOTP(ctx context.Context, identifier string, purpose domain.OTPPurpose, code string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || code == "" {
		return nil, ErrOTPMismatch
	}
	if !domain.ValidOTPPurpose(purpose) {
		return nil, ErrInvalidOTPPurpose
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	otp, err := s.otps.Fetch(ctx, purpose, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOTPNotFound
		}
		return nil, fmt.Errorf("fetch code: %w", err)
	}

	now := s.now().UTC()
	if !otp.ExpiresAt.IsZero() && now.After(otp.ExpiresAt) {
		return nil, ErrOTPNotFound
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return nil, ErrOTPMismatch
	}

	if err := s.users.SetVerified(ctx, user.ID, purpose, now); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}

	if err := s.otps.Delete(ctx, purpose, identifier); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.WithContext(ctx).Warn("delete consumed otp failed",
			zap.String("identifier", logger.MaskIdentifier(identifier)),
			zap.Error(err),
		)
	}

	switch purpose {
	case domain.OTPPurposeEmail:
		user.IsEmailVerified = true
	case domain.OTPPurposePhone:
		user.IsPhoneVerified = true
	}
	user.UpdatedAt = now

	event := domain.ContactVerifiedEvent{
		UserID:     user.ID,
		Channel:    string(purpose),
		VerifiedAt: now,
	}
	if err := s.publisher.PublishContactVerified(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("publish contact verified event failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}
