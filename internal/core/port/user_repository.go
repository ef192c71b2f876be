package port

import (
	"context"
	"time"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetVerified(ctx context.Context, id string, channel domain.OTPPurpose, at time.Time) error
	SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error
	UpdatePasswordAndClearReset(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
}

// ProfileRepository persists the marketplace profile row created at registration.
type ProfileRepository interface {
	Create(ctx context.Context, profile domain.Profile) error
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
}

// RegistrationRepository writes the user and profile rows atomically so a
// failed profile insert never leaves an orphaned user behind.
type RegistrationRepository interface {
	CreateUserWithProfile(ctx context.Context, user domain.User, profile domain.Profile) error
}
