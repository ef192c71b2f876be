package domain

import "time"

// UserRole enumerates the marketplace account roles.
type UserRole string

const (
	RoleSeeker UserRole = "seeker"
	RoleLister UserRole = "lister"
	RoleAdmin  UserRole = "admin"
)

// ValidRole reports whether the supplied role is one of the known marketplace roles.
func ValidRole(role UserRole) bool {
	switch role {
	case RoleSeeker, RoleLister, RoleAdmin:
		return true
	default:
		return false
	}
}

// User mirrors the persisted representation in the users table.
type User struct {
	ID                     string
	Email                  string
	Phone                  string
	PasswordHash           string
	Role                   UserRole
	IsEmailVerified        bool
	IsPhoneVerified        bool
	IsActive               bool
	ResetPasswordTokenHash *string
	ResetPasswordExpiresAt *time.Time
	LastLoginAt            *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsVerified is derived from the two channel flags and is never stored on its own.
func (u User) IsVerified() bool {
	return u.IsEmailVerified || u.IsPhoneVerified
}

// Sanitized returns a copy safe to hand to transport layers.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.ResetPasswordTokenHash = nil
	return u
}

// Profile holds the marketplace-facing profile row created alongside a user.
type Profile struct {
	ID          string
	UserID      string
	ProfileType string
	DisplayName string
	CreatedAt   time.Time
}
