package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpify/internal/dashboard/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

const (
	defaultLogsLimit int32 = 10
	maxLogsLimit     int32 = 100
)

type LogsInput struct {
	Limit int32
}

// Logs returns the caller's newest usage logs. Limits outside 1..100 are
// clamped, a missing limit means 10.
func (s *Usecase) Logs(ctx context.Context, in LogsInput) ([]entity.LogEntry, error) {
	ctx, span := s.startSpan(ctx, "Logs")
	defer span.End()

	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	limit := in.Limit
	switch {
	case limit <= 0:
		limit = defaultLogsLimit
	case limit > maxLogsLimit:
		limit = maxLogsLimit
	}

	logs, err := s.repoDB.ListLogs(ctx, userID, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list usage logs", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return logs, nil
}
