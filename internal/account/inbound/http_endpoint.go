package inbound

import (
	"github.com/shandysiswandi/otpify/internal/account/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
)

// HTTPEndpoint exposes registration, login and password recovery handlers.
type HTTPEndpoint struct {
	uc uc
}

// Register creates an account and returns its first API key.
// @Summary Register account
// @Description Creates an account with a salted password hash and a fresh API key.
// @Tags Auth
// @Accept json
// @Produce json
// @Param X-Idempotency-Key header string false "Client generated key to make retries safe"
// @Param request body RegisterRequest true "Register payload"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Account created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		IdempotencyKey: r.IdempotencyKey(),
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{UserResponse: toUserResponse(resp)}, nil
}

// Login exchanges credentials for a bearer token.
// @Summary Login
// @Description Validates credentials and returns a bearer token with the account.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authenticated"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Incorrect email or password"
// @Failure 403 {object} router.errorResponse "Inactive user"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		User:        toUserResponse(resp.User),
	}, nil
}

// Me returns the authenticated account.
// @Summary Current account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=UserResponse} "Account"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Inactive user"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/auth/me [get]
func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	resp, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return toUserResponse(resp), nil
}

// RegenerateAPIKey replaces the caller's API key. The old key stops working at once.
// @Summary Regenerate API key
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=RegenerateAPIKeyResponse} "New key"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Inactive user"
// @Failure 409 {object} router.errorResponse "Key changed concurrently"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/regenerate-api-key [post]
func (h *HTTPEndpoint) RegenerateAPIKey(r *router.Request) (any, error) {
	resp, err := h.uc.RegenerateAPIKey(r.Context())
	if err != nil {
		return nil, err
	}

	return RegenerateAPIKeyResponse{UserResponse: toUserResponse(resp)}, nil
}

// PasswordForgot emails a reset link when the address belongs to an account.
// @Summary Forgot password
// @Description Always answers the same way so addresses cannot be enumerated.
// @Tags Auth
// @Accept json
// @Produce json
// @Param X-Idempotency-Key header string false "Client generated key to make retries safe"
// @Param request body PasswordForgotRequest true "Forgot password payload"
// @Success 200 {object} router.successResponse "Reset link sent if the account exists"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/forgot-password [post]
func (h *HTTPEndpoint) PasswordForgot(r *router.Request) (any, error) {
	var req PasswordForgotRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{
		Email:          req.Email,
		IdempotencyKey: r.IdempotencyKey(),
	}); err != nil {
		return nil, err
	}

	return PasswordForgotResponse{}, nil
}

// PasswordReset sets a new password using the emailed token.
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Produce json
// @Param X-Idempotency-Key header string false "Client generated key to make retries safe"
// @Param request body PasswordResetRequest true "Reset password payload"
// @Success 200 {object} router.successResponse "Password reset"
// @Failure 400 {object} router.errorResponse "Invalid or expired reset token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/reset-password [post]
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		Token:          req.Token,
		NewPassword:    req.NewPassword,
		IdempotencyKey: r.IdempotencyKey(),
	}); err != nil {
		return nil, err
	}

	return PasswordResetResponse{}, nil
}
