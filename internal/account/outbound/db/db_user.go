package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpify/internal/account/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
)

const userColumns = `id, email, full_name, password_hash, api_key, is_active, reset_token, reset_token_expires, created_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u        entity.User
		token    pgtype.Text
		tokenExp pgtype.Timestamptz
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.APIKey,
		&u.IsActive,
		&token,
		&tokenExp,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}

	if token.Valid {
		u.ResetToken = token.String
	}
	if tokenExp.Valid {
		exp := tokenExp.Time
		u.ResetTokenExpires = &exp
	}

	return &u, nil
}

func (s *DB) CreateUser(ctx context.Context, user entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, api_key, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.FullName, user.PasswordHash, user.APIKey, user.IsActive, user.CreatedAt,
	)
	return s.mapError(err)
}

func (s *DB) getUser(ctx context.Context, where string, arg any) (*entity.User, error) {
	user, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		return nil, s.mapError(err)
	}
	return user, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	return s.getUser(ctx, `email = $1`, email)
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	return s.getUser(ctx, `id = $1`, id)
}

func (s *DB) GetUserByAPIKey(ctx context.Context, key string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByAPIKey")
	defer func() { s.endSpan(span, err) }()

	return s.getUser(ctx, `api_key = $1`, key)
}

func (s *DB) GetUserByResetToken(ctx context.Context, tokenHash string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByResetToken")
	defer func() { s.endSpan(span, err) }()

	return s.getUser(ctx, `reset_token = $1`, tokenHash)
}

// UpdateAPIKey swaps the key only if it is still oldKey.
func (s *DB) UpdateAPIKey(ctx context.Context, id int64, oldKey, newKey string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateAPIKey")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `UPDATE users SET api_key = $3 WHERE id = $1 AND api_key = $2`, id, oldKey, newKey)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func (s *DB) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "SetResetToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`UPDATE users SET reset_token = $2, reset_token_expires = $3 WHERE id = $1`,
		id, tokenHash, expires,
	)
	return s.mapError(err)
}

func (s *DB) ClearResetToken(ctx context.Context, id int64, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "ClearResetToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`UPDATE users SET reset_token = NULL, reset_token_expires = NULL WHERE id = $1 AND reset_token = $2`,
		id, tokenHash,
	)
	return s.mapError(err)
}

// ResetPassword stores the new hash and consumes the token in one statement,
// so a token resets the password at most once.
func (s *DB) ResetPassword(ctx context.Context, id int64, tokenHash, passwordHash string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE users SET password_hash = $3, reset_token = NULL, reset_token_expires = NULL
WHERE id = $1 AND reset_token = $2`,
		id, tokenHash, passwordHash,
	)
	if err != nil {
		return false, s.mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}
