package inbound

import (
	"context"

	"github.com/shandysiswandi/otpify/internal/otp/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/otp/send", end.Send, r.APIKeyAuth())
	r.POST("/api/otp/verify", end.Verify, r.APIKeyAuth())
}
