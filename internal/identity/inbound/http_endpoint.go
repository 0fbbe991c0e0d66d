package inbound

import (
	"github.com/shandysiswandi/ideabox/internal/identity/usecase"
	"github.com/shandysiswandi/ideabox/internal/pkg/router"
)

// HTTPEndpoint exposes the one-time password login flow.
type HTTPEndpoint struct {
	uc uc
}

// RequestOTP issues a code for the corporate id and emails it.
// @Summary Request OTP
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body OTPRequest true "OTP request payload"
// @Success 200 {object} router.successResponse{data=OTPSentResponse} "OTP sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Corporate ID not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Storage or delivery failure"
// @Router /api/v1/identity/otp/request [post]
func (h *HTTPEndpoint) RequestOTP(r *router.Request) (any, error) {
	var req OTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RequestOTP(r.Context(), usecase.IssueOTPInput{CorporateID: req.CorporateID}); err != nil {
		return nil, err
	}

	return OTPSentResponse{}, nil
}

// ResendOTP replaces any pending code with a new one.
// @Summary Resend OTP
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body OTPRequest true "OTP resend payload"
// @Success 200 {object} router.successResponse{data=OTPSentResponse} "OTP sent"
// @Failure 404 {object} router.errorResponse "Corporate ID not found"
// @Failure 500 {object} router.errorResponse "Storage or delivery failure"
// @Router /api/v1/identity/otp/resend [post]
func (h *HTTPEndpoint) ResendOTP(r *router.Request) (any, error) {
	var req OTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ResendOTP(r.Context(), usecase.IssueOTPInput{CorporateID: req.CorporateID}); err != nil {
		return nil, err
	}

	return OTPSentResponse{}, nil
}

// VerifyOTP consumes a pending code and returns the identity role.
// @Summary Verify OTP
// @Tags Identity, OTP
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "OTP verification payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "Login successful"
// @Failure 400 {object} router.errorResponse "Invalid or expired OTP"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Storage failure"
// @Router /api/v1/identity/otp/verify [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		CorporateID: req.CorporateID,
		OTP:         req.OTP,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{Role: resp.Role}, nil
}
