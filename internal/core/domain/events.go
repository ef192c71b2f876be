package domain

import "time"

// UserRegisteredEvent represents the payload for identity.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Email        string
	Phone        string
	Role         string
	ProfileType  string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// UserLoggedInEvent represents the payload for identity.user.logged_in messages.
type UserLoggedInEvent struct {
	EventID  string
	UserID   string
	LoggedAt time.Time
	IP       *string
	Metadata map[string]any
}

// OTPIssuedEvent carries a verification code for out-of-band delivery (email/SMS).
type OTPIssuedEvent struct {
	EventID    string
	Purpose    string
	Identifier string
	Code       string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// ContactVerifiedEvent represents the payload for identity.user.verified messages.
type ContactVerifiedEvent struct {
	EventID    string
	UserID     string
	Channel    string
	VerifiedAt time.Time
}

// PasswordResetRequestedEvent carries the raw reset token for out-of-band delivery.
// Only the token's hash is persisted; this payload is the single place the raw
// value travels before it reaches the user.
type PasswordResetRequestedEvent struct {
	EventID           string
	UserID            string
	Email             string
	MaskedDestination string
	Token             string
	RequestedAt       time.Time
	ExpiresAt         time.Time
}

// PasswordChangedEvent represents the payload for identity.user.password_changed messages.
type PasswordChangedEvent struct {
	EventID   string
	UserID    string
	ChangedAt time.Time
	Metadata  map[string]any
}
