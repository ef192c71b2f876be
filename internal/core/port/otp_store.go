package port

import (
	"context"
	"time"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
)

// OTPStore holds short-lived verification codes keyed by (purpose, identifier).
// Implementations must expire entries after the supplied TTL. A disabled
// implementation exists so the verification flow degrades to "code never
// found" when no ephemeral store is configured.
type OTPStore interface {
	Store(ctx context.Context, purpose domain.OTPPurpose, identifier, code string, ttl time.Duration) (*domain.OTP, error)
	Fetch(ctx context.Context, purpose domain.OTPPurpose, identifier string) (*domain.OTP, error)
	Delete(ctx context.Context, purpose domain.OTPPurpose, identifier string) error
}
