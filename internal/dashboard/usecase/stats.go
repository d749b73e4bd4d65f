package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpify/internal/dashboard/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

type ChartPoint struct {
	Name  string
	Value int64
}

type StatsOutput struct {
	TotalRequests int64
	SuccessRate   string
	AvgResponse   string
	ActiveUsers   int64
	ChartData     []ChartPoint
}

func formatRate(success, total int64) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(success)/float64(total)*100)
}

func formatAvg(ms float64) string {
	return fmt.Sprintf("%dms", int64(math.Round(ms)))
}

// chart lays counts over the ChartDays UTC days ending today, oldest first.
// Days without logs get zero.
func chart(today time.Time, counts []entity.DayCount) []ChartPoint {
	byDay := lo.SliceToMap(counts, func(c entity.DayCount) (string, int64) {
		return c.Day.UTC().Format(time.DateOnly), c.Count
	})

	return lo.Times(entity.ChartDays, func(i int) ChartPoint {
		day := today.AddDate(0, 0, i-(entity.ChartDays-1))
		return ChartPoint{
			Name:  day.Format("Mon"),
			Value: byDay[day.Format(time.DateOnly)],
		}
	})
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Usecase) Stats(ctx context.Context) (*StatsOutput, error) {
	ctx, span := s.startSpan(ctx, "Stats")
	defer span.End()

	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := startOfDay(now)

	sum, err := s.repoDB.GetSummary(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get usage summary", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	active, err := s.repoDB.CountActiveUsers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count active users", "error", err)
		return nil, goerror.NewServer(err)
	}

	daily, err := s.repoDB.CountDaily(ctx, userID, today.AddDate(0, 0, -(entity.ChartDays-1)))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count daily usage", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &StatsOutput{
		TotalRequests: sum.Total,
		SuccessRate:   formatRate(sum.Success, sum.Total),
		AvgResponse:   formatAvg(sum.AvgResponseMS),
		ActiveUsers:   active,
		ChartData:     chart(today, daily),
	}, nil
}
