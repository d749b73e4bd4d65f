package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpify/internal/dashboard/entity"
)

const (
	selectSummary = `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'success'), COALESCE(AVG(response_time_ms), 0)
FROM usage_logs WHERE user_id = $1`

	countActiveUsers = `SELECT COUNT(*) FROM users WHERE is_active`

	countDaily = `SELECT date_trunc('day', l.timestamp AT TIME ZONE 'UTC') AS day, COUNT(*)
FROM usage_logs l WHERE l.user_id = $1 AND l.timestamp >= $2
GROUP BY day ORDER BY day`

	selectLogs = `SELECT l.id, l.endpoint, l.status, l.response_time_ms, l.timestamp, u.email
FROM usage_logs l JOIN users u ON u.id = l.user_id
WHERE l.user_id = $1
ORDER BY l.timestamp DESC, l.id DESC`
)

func (s *DB) GetSummary(ctx context.Context, userID int64) (_ entity.Summary, err error) {
	ctx, span := s.startSpan(ctx, "GetSummary")
	defer func() { s.endSpan(span, err) }()

	var sum entity.Summary
	err = s.conn.QueryRow(ctx, selectSummary, userID).Scan(&sum.Total, &sum.Success, &sum.AvgResponseMS)
	return sum, s.mapError(err)
}

// CountActiveUsers counts accounts that are enabled, across all callers.
func (s *DB) CountActiveUsers(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountActiveUsers")
	defer func() { s.endSpan(span, err) }()

	var n int64
	err = s.conn.QueryRow(ctx, countActiveUsers).Scan(&n)
	return n, s.mapError(err)
}

func (s *DB) CountDaily(ctx context.Context, userID int64, since time.Time) (_ []entity.DayCount, err error) {
	ctx, span := s.startSpan(ctx, "CountDaily")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, countDaily, userID, since)
	if err != nil {
		return nil, s.mapError(err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DayCount, error) {
		var c entity.DayCount
		err := row.Scan(&c.Day, &c.Count)
		return c, err
	})
	return counts, s.mapError(err)
}

func scanLog(row pgx.Row) (entity.LogEntry, error) {
	var l entity.LogEntry
	err := row.Scan(&l.ID, &l.Endpoint, &l.Status, &l.ResponseTimeMS, &l.Timestamp, &l.UserEmail)
	return l, err
}

func (s *DB) ListLogs(ctx context.Context, userID int64, limit int32) (_ []entity.LogEntry, err error) {
	ctx, span := s.startSpan(ctx, "ListLogs")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, selectLogs+` LIMIT $2`, userID, limit)
	if err != nil {
		return nil, s.mapError(err)
	}

	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.LogEntry, error) {
		return scanLog(row)
	})
	return logs, s.mapError(err)
}

// EachLog streams every log of the user, newest first, without loading the
// full set into memory.
func (s *DB) EachLog(ctx context.Context, userID int64, fn func(entity.LogEntry) error) (err error) {
	ctx, span := s.startSpan(ctx, "EachLog")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, selectLogs, userID)
	if err != nil {
		return s.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
	}

	return rows.Err()
}
