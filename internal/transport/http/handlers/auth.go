package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/security"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/transport/http/middleware"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/usecase"
)

const tokenTypeBearer = "Bearer"

// AuthHandler serves registration, login, refresh and identity endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid registration payload")
		return
	}

	result, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		Role:        domain.UserRole(req.Role),
		ProfileType: req.ProfileType,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrDuplicateIdentity, Status: http.StatusConflict, Message: "email or phone already registered"},
			{Err: usecase.ErrPasswordTooShort, Status: http.StatusBadRequest, Message: "password does not meet the minimum length"},
		}, http.StatusInternalServerError, "registration failed")
		return
	}

	respondSuccess(c, http.StatusCreated, "account created", AuthPayload{
		User:         newUserPayload(result.User),
		Profile:      newProfilePayload(result.Profile),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    result.ExpiresIn,
	})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "identifier and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			{Err: usecase.ErrAccountDeactivated, Status: http.StatusForbidden, Message: "account deactivated"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	respondSuccess(c, http.StatusOK, "login successful", AuthPayload{
		User:         newUserPayload(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    result.ExpiresIn,
	})
}

// Refresh handles POST /api/v1/auth/refresh-token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: security.ErrInvalidOrExpiredToken, Status: http.StatusUnauthorized, Message: "invalid or expired refresh token"},
			{Err: usecase.ErrUserNotFoundOrInactive, Status: http.StatusUnauthorized, Message: "user not found or inactive"},
		}, http.StatusInternalServerError, "token refresh failed")
		return
	}

	respondSuccess(c, http.StatusOK, "token refreshed", TokenPayload{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	user, profile, err := h.auth.Whoami(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFoundOrInactive, Status: http.StatusUnauthorized, Message: "user not found or inactive"},
		}, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	payload := MePayload{User: newUserPayload(*user)}
	if profile != nil {
		payload.Profile = newProfilePayload(*profile)
	}

	respondSuccess(c, http.StatusOK, "authenticated user", payload)
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so logout
// is an acknowledgment; the client discards its pair.
func (h *AuthHandler) Logout(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "logged out", nil)
}
