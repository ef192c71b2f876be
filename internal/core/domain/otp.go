package domain

import "time"

// OTPPurpose identifies which contact channel an OTP verifies.
type OTPPurpose string

const (
	OTPPurposeEmail OTPPurpose = "email"
	OTPPurposePhone OTPPurpose = "phone"
)

// ValidOTPPurpose reports whether the purpose is a recognized channel.
func ValidOTPPurpose(p OTPPurpose) bool {
	return p == OTPPurposeEmail || p == OTPPurposePhone
}

// OTP is an ephemeral verification code keyed by (purpose, identifier).
type OTP struct {
	Purpose    OTPPurpose
	Identifier string
	Code       string
	Attempts   int
	CreatedAt  time.Time
	ExpiresAt  time.Time
}
