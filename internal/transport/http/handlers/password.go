package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/usecase"
)

// PasswordHandler serves the forgot/reset password endpoints.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

// NewPasswordHandler constructs a PasswordHandler.
func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// Forgot handles POST /api/v1/auth/forgot-password. The response is identical
// for known and unknown emails.
func (h *PasswordHandler) Forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "a valid email is required")
		return
	}

	result, err := h.reset.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "could not initiate password reset")
		return
	}

	respondSuccess(c, http.StatusOK, "reset instructions sent if the account exists", ForgotPasswordPayload{
		DevToken: result.DevToken,
	})
}

// Reset handles POST /api/v1/auth/reset-password.
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "token and new_password are required")
		return
	}

	err := h.reset.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPasswordTooShort, Status: http.StatusBadRequest, Message: "password does not meet the minimum length"},
			{Err: usecase.ErrInvalidResetToken, Status: http.StatusUnauthorized, Message: "invalid or expired reset token"},
		}, http.StatusInternalServerError, "password reset failed")
		return
	}

	respondSuccess(c, http.StatusOK, "password updated", nil)
}
