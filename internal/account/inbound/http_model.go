package inbound

import (
	"net/http"

	"github.com/shandysiswandi/otpify/internal/account/usecase"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type UserResponse struct {
	ID        int64  `json:"id,string"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	APIKey    string `json:"api_key"`
	IsActive  bool   `json:"is_active"`
	CreatedAt int64  `json:"created_at"`
}

func toUserResponse(u *usecase.UserOutput) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		APIKey:    u.APIKey,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

type RegisterResponse struct {
	UserResponse
}

func (RegisterResponse) Message() string {
	return "User registered successfully"
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

type RegenerateAPIKeyResponse struct {
	UserResponse
}

func (RegenerateAPIKeyResponse) Message() string {
	return "API key regenerated successfully"
}

type PasswordForgotRequest struct {
	Email string `json:"email"`
}

type PasswordForgotResponse struct{}

func (PasswordForgotResponse) Message() string {
	return "If an account exists with that email, a password reset link has been sent."
}

type PasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type PasswordResetResponse struct{}

func (PasswordResetResponse) Message() string {
	return "Password has been reset successfully. You can now login with your new password."
}
