package inbound

import (
	"context"

	"github.com/shandysiswandi/otpify/internal/account/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.UserOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Me(ctx context.Context) (*usecase.UserOutput, error)
	RegenerateAPIKey(ctx context.Context) (*usecase.UserOutput, error)

	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) error
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/auth/register", end.Register)
	r.POST("/api/auth/login", end.Login)
	r.GET("/api/auth/me", end.Me)
	r.POST("/api/auth/regenerate-api-key", end.RegenerateAPIKey)
	//
	r.POST("/api/auth/forgot-password", end.PasswordForgot)
	r.POST("/api/auth/reset-password", end.PasswordReset)
}
