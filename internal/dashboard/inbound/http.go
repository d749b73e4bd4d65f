package inbound

import (
	"context"

	"github.com/shandysiswandi/otpify/internal/dashboard/entity"
	"github.com/shandysiswandi/otpify/internal/dashboard/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
)

type uc interface {
	Stats(ctx context.Context) (*usecase.StatsOutput, error)
	Logs(ctx context.Context, in usecase.LogsInput) ([]entity.LogEntry, error)
	Export(ctx context.Context) (*usecase.ExportOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/dashboard/stats", end.Stats)
	r.GET("/api/dashboard/logs", end.Logs)
	r.POST("/api/dashboard/export", end.Export)
}
