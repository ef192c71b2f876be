package usecase

import (
	"context"
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

// ErrInvalidResetToken indicates the reset token is unknown, already used or
// past its expiry. The three cases are deliberately indistinguishable.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

const resetTokenBytes = 32

// ForgotResult reports reset initiation. DevToken is populated only in
// development environments; production delivery rides on the event bus.
type ForgotResult struct {
	DevToken string
}

// PasswordResetService handles the forgot/reset password flow. Only the
// SHA-256 hash of a reset token is persisted; the raw value leaves the
// service exactly once, inside the reset-requested event.
type PasswordResetService struct {
	cfg       config.AuthSettings
	dev       bool
	users     port.UserRepository
	hasher    *security.PasswordHasher
	publisher port.EventPublisher
	now       func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(
	cfg config.AuthSettings,
	dev bool,
	users port.UserRepository,
	hasher *security.PasswordHasher,
	publisher port.EventPublisher,
) *PasswordResetService {
	return &PasswordResetService{
		cfg:       cfg,
		dev:       dev,
		users:     users,
		hasher:    hasher,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	s.now = clock
}

// ForgotPassword stores a hashed single-use reset token on the user row.
// Unknown or inactive accounts get the same success answer as real ones.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) (*ForgotResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ForgotResult{}, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return &ForgotResult{}, nil
	}

	token, err := security.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.cfg.ResetTokenTTL)

	if err := s.users.SetResetToken(ctx, user.ID, security.HashToken(token), expiresAt); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	event := domain.PasswordResetRequestedEvent{
		UserID:            user.ID,
		Email:             user.Email,
		MaskedDestination: logger.MaskEmail(user.Email),
		Token:             token,
		RequestedAt:       now,
		ExpiresAt:         expiresAt,
	}
	if err := s.publisher.PublishPasswordResetRequested(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("publish reset requested event failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	result := &ForgotResult{}
	if s.dev {
		result.DevToken = token
	}
	return result, nil
}

// ResetPassword consumes a reset token and installs the new password. The
// length rule runs before any lookup so a weak password never burns the
// token. Clearing the token fields in the same update as the password write
// makes the token single-use.
func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < s.cfg.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if strings.TrimSpace(rawToken) == "" {
		return ErrInvalidResetToken
	}

	user, err := s.users.GetByResetTokenHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	now := s.now().UTC()
	if user.ResetPasswordExpiresAt == nil || now.After(*user.ResetPasswordExpiresAt) {
		return ErrInvalidResetToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePasswordAndClearReset(ctx, user.ID, passwordHash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	event := domain.PasswordChangedEvent{
		UserID:    user.ID,
		ChangedAt: now,
	}
	if err := s.publisher.PublishPasswordChanged(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("publish password changed event failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return nil
}
