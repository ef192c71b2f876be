package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
)

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondSuccess(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Envelope{Status: "success", Message: message, Data: data})
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, Envelope{Status: "error", Message: message})
}

// RegisterRequest defines the account registration payload. ProfileType is
// optional and falls back to the role server-side.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role"`
	ProfileType string `json:"profile_type"`
	DisplayName string `json:"display_name"`
}

// LoginRequest accepts an email or phone identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ResendOTPRequest asks for a fresh verification code.
type ResendOTPRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Purpose    string `json:"purpose" binding:"required"`
}

// VerifyOTPRequest submits a verification code.
type VerifyOTPRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Purpose    string `json:"purpose" binding:"required"`
	Code       string `json:"code" binding:"required"`
}

// ForgotPasswordRequest initiates a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UserPayload is the API view of a user.
type UserPayload struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	Role            string     `json:"role"`
	IsEmailVerified bool       `json:"is_email_verified"`
	IsPhoneVerified bool       `json:"is_phone_verified"`
	IsVerified      bool       `json:"is_verified"`
	IsActive        bool       `json:"is_active"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ProfilePayload is the API view of a marketplace profile.
type ProfilePayload struct {
	ID          string `json:"id"`
	ProfileType string `json:"profile_type"`
	DisplayName string `json:"display_name,omitempty"`
}

// AuthPayload carries a user and a token pair.
type AuthPayload struct {
	User         UserPayload     `json:"user"`
	Profile      *ProfilePayload `json:"profile,omitempty"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
}

// MePayload is returned by the authenticated identity endpoint.
type MePayload struct {
	User    UserPayload     `json:"user"`
	Profile *ProfilePayload `json:"profile,omitempty"`
}

// TokenPayload carries a refreshed token pair.
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// OTPPayload optionally echoes the code in development environments.
type OTPPayload struct {
	DevCode string `json:"dev_code,omitempty"`
}

// ForgotPasswordPayload optionally echoes the reset token in development.
type ForgotPasswordPayload struct {
	DevToken string `json:"dev_token,omitempty"`
}

func newUserPayload(user domain.User) UserPayload {
	return UserPayload{
		ID:              user.ID,
		Email:           user.Email,
		Phone:           user.Phone,
		Role:            string(user.Role),
		IsEmailVerified: user.IsEmailVerified,
		IsPhoneVerified: user.IsPhoneVerified,
		IsVerified:      user.IsVerified(),
		IsActive:        user.IsActive,
		LastLoginAt:     user.LastLoginAt,
		CreatedAt:       user.CreatedAt,
	}
}

func newProfilePayload(profile domain.Profile) *ProfilePayload {
	return &ProfilePayload{
		ID:          profile.ID,
		ProfileType: profile.ProfileType,
		DisplayName: profile.DisplayName,
	}
}
