package inbound

import (
	"github.com/shandysiswandi/otpify/internal/otp/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
)

// HTTPEndpoint exposes the code issuance and verification handlers.
type HTTPEndpoint struct {
	uc uc
}

func callerID(r *router.Request) (int64, error) {
	owner := router.GetAPIKeyOwner(r.Context())
	if owner == nil {
		return 0, goerror.NewBusiness("Invalid API Key", goerror.CodeUnauthorized)
	}
	return owner.UserID, nil
}

// Send issues a code and emails it to the address.
// @Summary Send OTP
// @Description Generates a 6 digit code valid for 5 minutes and emails it to the address. Delivery happens in the background.
// @Tags OTP
// @Accept json
// @Produce json
// @Security APIKeyAuth
// @Param request body SendRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendResponse} "OTP sent"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "API key missing or invalid"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many OTP requests"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/otp/send [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	userID, err := callerID(r)
	if err != nil {
		return nil, err
	}

	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		UserID: userID,
		Email:  req.Email,
	})
	if err != nil {
		return nil, err
	}

	return SendResponse{ID: resp.ID, ExpiresAt: resp.ExpiresAt}, nil
}

// Verify checks a code against the newest unverified record of the address.
// @Summary Verify OTP
// @Description Verifies the code of the newest unverified OTP for the address. Five wrong codes lock the record.
// @Tags OTP
// @Accept json
// @Produce json
// @Security APIKeyAuth
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "OTP verified"
// @Failure 400 {object} router.errorResponse "No active OTP, too many attempts, expired or invalid code"
// @Failure 401 {object} router.errorResponse "API key missing or invalid"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/otp/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	userID, err := callerID(r)
	if err != nil {
		return nil, err
	}

	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		UserID: userID,
		Email:  req.Email,
		Code:   req.OTP,
	}); err != nil {
		return nil, err
	}

	return VerifyResponse{Verified: true}, nil
}
