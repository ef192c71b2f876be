package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/usecase"
)

// OTPHandler serves the contact verification endpoints.
type OTPHandler struct {
	otp *usecase.OTPService
}

// NewOTPHandler constructs an OTPHandler.
func NewOTPHandler(otp *usecase.OTPService) *OTPHandler {
	return &OTPHandler{otp: otp}
}

// Resend handles POST /api/v1/auth/resend-otp. The response is identical for
// known and unknown identifiers.
func (h *OTPHandler) Resend(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "identifier and purpose are required")
		return
	}

	result, err := h.otp.ResendOTP(c.Request.Context(), req.Identifier, domain.OTPPurpose(req.Purpose))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidOTPPurpose, Status: http.StatusBadRequest, Message: "purpose must be email or phone"},
		}, http.StatusInternalServerError, "could not issue verification code")
		return
	}

	respondSuccess(c, http.StatusOK, "verification code sent if the account exists", OTPPayload{
		DevCode: result.DevCode,
	})
}

// Verify handles POST /api/v1/auth/verify-otp.
func (h *OTPHandler) Verify(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "identifier, purpose and code are required")
		return
	}

	user, err := h.otp.VerifyOTP(c.Request.Context(), req.Identifier, domain.OTPPurpose(req.Purpose), req.Code)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidOTPPurpose, Status: http.StatusBadRequest, Message: "purpose must be email or phone"},
			{Err: usecase.ErrNoSuchUser, Status: http.StatusNotFound, Message: "no account for identifier"},
			{Err: usecase.ErrOTPNotFound, Status: http.StatusBadRequest, Message: "verification code not found or expired"},
			{Err: usecase.ErrOTPMismatch, Status: http.StatusBadRequest, Message: "verification code does not match"},
		}, http.StatusInternalServerError, "verification failed")
		return
	}

	respondSuccess(c, http.StatusOK, "contact verified", newUserPayload(*user))
}
