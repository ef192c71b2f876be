package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured, typically in development.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
	}

	p.logger.Info("stub event published", append(base, fields...)...)
}

// PublishUserRegistered logs identity.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.logEvent("identity.user.registered", event.UserID, event.RegisteredAt,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.String("phone", logger.MaskPhone(event.Phone)),
		zap.String("role", event.Role),
		zap.String("profile_type", event.ProfileType),
	)
	return nil
}

// PublishUserLoggedIn logs identity.user.logged_in events.
func (p *StubPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	fields := []zap.Field{}
	if event.IP != nil {
		fields = append(fields, zap.String("ip", logger.MaskIP(*event.IP)))
	}
	p.logEvent("identity.user.logged_in", event.UserID, event.LoggedAt, fields...)
	return nil
}

// PublishOTPIssued logs identity.user.otp_issued events. The code itself is
// masked; in development the caller already echoes it through the API.
func (p *StubPublisher) PublishOTPIssued(_ context.Context, event domain.OTPIssuedEvent) error {
	p.logEvent("identity.user.otp_issued", "", event.IssuedAt,
		zap.String("purpose", event.Purpose),
		zap.String("identifier", logger.MaskIdentifier(event.Identifier)),
		zap.String("code", logger.MaskString(event.Code)),
		zap.Time("expires_at", event.ExpiresAt.UTC()),
	)
	return nil
}

// PublishContactVerified logs identity.user.verified events.
func (p *StubPublisher) PublishContactVerified(_ context.Context, event domain.ContactVerifiedEvent) error {
	p.logEvent("identity.user.verified", event.UserID, event.VerifiedAt,
		zap.String("channel", event.Channel),
	)
	return nil
}

// PublishPasswordResetRequested logs identity.user.password_reset_requested
// events. The raw token never reaches the log.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.logEvent("identity.user.password_reset_requested", event.UserID, event.RequestedAt,
		zap.String("destination", event.MaskedDestination),
		zap.String("token", logger.MaskString(event.Token)),
		zap.Time("expires_at", event.ExpiresAt.UTC()),
	)
	return nil
}

// PublishPasswordChanged logs identity.user.password_changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent("identity.user.password_changed", event.UserID, event.ChangedAt)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
