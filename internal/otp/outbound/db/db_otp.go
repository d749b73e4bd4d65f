package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpify/internal/otp/entity"
)

const (
	queryInsertOTP = `INSERT INTO otps (id, user_id, email, code_hash, expires_at, attempts, is_verified, created_at)
VALUES ($1, $2, $3, $4, $5, 0, FALSE, $6)`

	queryInsertUsageLog = `INSERT INTO usage_logs (id, user_id, endpoint, status, response_time_ms, timestamp)
VALUES ($1, $2, $3, $4, $5, $6)`

	queryLatestUnverifiedOTP = `SELECT id, user_id, email, code_hash, expires_at, attempts, is_verified, created_at
FROM otps
WHERE email = $1 AND NOT is_verified
ORDER BY created_at DESC, id DESC
LIMIT 1`

	queryIncrementAttempts = `UPDATE otps SET attempts = attempts + 1
WHERE id = $1 AND NOT is_verified AND attempts < $2`

	queryMarkVerified = `UPDATE otps SET is_verified = TRUE
WHERE id = $1 AND NOT is_verified AND attempts < $2 AND expires_at >= $3`
)

// CreateOTP stores the record together with its usage log.
func (s *DB) CreateOTP(ctx context.Context, otp entity.OTP, log entity.UsageLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateOTP")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	if _, err = tx.Exec(ctx, queryInsertOTP,
		otp.ID, otp.UserID, otp.Email, otp.CodeHash, otp.ExpiresAt, otp.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	if err = s.insertUsageLog(ctx, tx, log); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) GetLatestUnverifiedOTP(ctx context.Context, email string) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestUnverifiedOTP")
	defer func() { s.endSpan(span, err) }()

	var otp entity.OTP
	err = s.conn.QueryRow(ctx, queryLatestUnverifiedOTP, email).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Email,
		&otp.CodeHash,
		&otp.ExpiresAt,
		&otp.Attempts,
		&otp.IsVerified,
		&otp.CreatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &otp, nil
}

// IncrementOTPAttempts bumps the attempt counter unless the record was
// verified or exhausted meanwhile. The failed usage log is written either way.
func (s *DB) IncrementOTPAttempts(ctx context.Context, id string, log entity.UsageLog) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "IncrementOTPAttempts")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer s.rollback(ctx, tx)

	tag, err := tx.Exec(ctx, queryIncrementAttempts, id, entity.MaxAttempts)
	if err != nil {
		return false, s.mapError(err)
	}

	if err = s.insertUsageLog(ctx, tx, log); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkOTPVerified flips is_verified exactly once and only while the record
// is unexpired at now. When another request won the race or the record
// expired meanwhile nothing is written and false is returned.
func (s *DB) MarkOTPVerified(ctx context.Context, id string, now time.Time, log entity.UsageLog) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkOTPVerified")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer s.rollback(ctx, tx)

	tag, err := tx.Exec(ctx, queryMarkVerified, id, entity.MaxAttempts, now)
	if err != nil {
		return false, s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err = s.insertUsageLog(ctx, tx, log); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, s.mapError(err)
	}

	return true, nil
}

func (s *DB) CreateUsageLog(ctx context.Context, log entity.UsageLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUsageLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryInsertUsageLog,
		log.ID, log.UserID, log.Endpoint, log.Status.String(), log.ResponseTimeMS, log.Timestamp,
	)
	return s.mapError(err)
}

func (s *DB) insertUsageLog(ctx context.Context, tx pgx.Tx, log entity.UsageLog) error {
	_, err := tx.Exec(ctx, queryInsertUsageLog,
		log.ID, log.UserID, log.Endpoint, log.Status.String(), log.ResponseTimeMS, log.Timestamp,
	)
	return s.mapError(err)
}

func (s *DB) rollback(ctx context.Context, tx pgx.Tx) {
	if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
		slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
	}
}
