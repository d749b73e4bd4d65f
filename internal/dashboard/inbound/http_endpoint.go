package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpify/internal/dashboard/entity"
	"github.com/shandysiswandi/otpify/internal/dashboard/usecase"
	"github.com/shandysiswandi/otpify/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// Stats summarises the caller's OTP traffic.
// @Summary Dashboard statistics
// @Description Totals, success rate and average latency of the caller's OTP calls plus a seven day chart.
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=StatsResponse} "Statistics"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/dashboard/stats [get]
func (h *HTTPEndpoint) Stats(r *router.Request) (any, error) {
	resp, err := h.uc.Stats(r.Context())
	if err != nil {
		return nil, err
	}

	return StatsResponse{
		TotalRequests: resp.TotalRequests,
		SuccessRate:   resp.SuccessRate,
		AvgResponse:   resp.AvgResponse,
		ActiveUsers:   resp.ActiveUsers,
		ChartData: lo.Map(resp.ChartData, func(p usecase.ChartPoint, _ int) ChartPoint {
			return ChartPoint{Name: p.Name, Value: p.Value}
		}),
	}, nil
}

// Logs lists the caller's newest usage logs.
// @Summary Recent usage logs
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of logs, default 10, max 100"
// @Success 200 {object} router.successResponse{data=LogsResponse} "Logs"
// @Failure 400 {object} router.errorResponse "Invalid query limit"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/dashboard/logs [get]
func (h *HTTPEndpoint) Logs(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	logs, err := h.uc.Logs(r.Context(), usecase.LogsInput{Limit: limit})
	if err != nil {
		return nil, err
	}

	return LogsResponse(lo.Map(logs, func(l entity.LogEntry, _ int) LogResponse {
		return LogResponse{
			ID:             l.ID,
			Endpoint:       l.Endpoint,
			Status:         l.Status,
			ResponseTimeMS: l.ResponseTimeMS,
			Timestamp:      l.Timestamp.Unix(),
			Email:          l.UserEmail,
		}
	})), nil
}

// Export uploads the caller's usage logs as CSV and returns a download link.
// @Summary Export usage logs
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=ExportResponse} "Signed download link"
// @Failure 400 {object} router.errorResponse "Export is not available"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/dashboard/export [post]
func (h *HTTPEndpoint) Export(r *router.Request) (any, error) {
	resp, err := h.uc.Export(r.Context())
	if err != nil {
		return nil, err
	}

	return ExportResponse{URL: resp.URL, ExpiresAt: resp.ExpiresAt, Rows: resp.Rows}, nil
}
