package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpify/internal/dashboard/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/storage"
)

const defaultExportURLTTL = 15 * time.Minute

var exportHeader = []string{"id", "endpoint", "status", "response_time_ms", "timestamp", "email"}

type ExportOutput struct {
	URL       string
	ExpiresAt int64
	Rows      int
}

// Export uploads the caller's usage logs as CSV and returns a signed
// download link.
func (s *Usecase) Export(ctx context.Context) (*ExportOutput, error) {
	ctx, span := s.startSpan(ctx, "Export")
	defer span.End()

	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, goerror.NewServer(err)
	}

	rows := 0
	err = s.repoDB.EachLog(ctx, userID, func(l entity.LogEntry) error {
		rows++
		return w.Write([]string{
			strconv.FormatInt(l.ID, 10),
			l.Endpoint,
			l.Status,
			strconv.FormatFloat(l.ResponseTimeMS, 'f', 2, 64),
			l.Timestamp.UTC().Format(time.RFC3339),
			l.UserEmail,
		})
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo read usage logs for export", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	key := fmt.Sprintf("exports/usage-logs/%d/%s-%s.csv", userID, now.UTC().Format("20060102T150405Z"), s.uuid.Generate())

	if err := s.storage.Put(ctx, key, &buf, int64(buf.Len()), "text/csv"); err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, goerror.NewBusiness("Export is not available", goerror.CodeBadRequest)
		}
		slog.ErrorContext(ctx, "failed to storage put export", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.cfg.GetMinute("modules.dashboard.export_url_ttl_minutes")
	if ttl <= 0 {
		ttl = defaultExportURLTTL
	}

	url, err := s.storage.PresignGet(ctx, key, ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to storage presign export", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ExportOutput{URL: url, ExpiresAt: now.Add(ttl).Unix(), Rows: rows}, nil
}
