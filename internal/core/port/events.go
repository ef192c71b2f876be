package port

import (
	"context"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
)

// EventPublisher publishes identity domain events to the message bus.
// Delivery of OTP codes and reset links rides on these events; the
// notification service downstream owns the actual email/SMS sending.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error
	PublishOTPIssued(ctx context.Context, event domain.OTPIssuedEvent) error
	PublishContactVerified(ctx context.Context, event domain.ContactVerifiedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
}
