package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpify/internal/otp/entity"
	"github.com/shandysiswandi/otpify/internal/otp/outbound/db"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/testkit"
)

const userID int64 = 42

func newDB(t *testing.T) (*db.DB, func(string) entity.OTP) {
	t.Helper()

	pool := testkit.Postgres(t)
	ctx := context.Background()
	if _, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, api_key) VALUES ($1, 'owner@example.com', 'x', 'otp_key')`,
		userID,
	); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	repo := db.NewDB(pool, instrument.NewNoop())
	get := func(id string) entity.OTP {
		t.Helper()
		var o entity.OTP
		err := pool.QueryRow(ctx, `SELECT id, attempts, is_verified FROM otps WHERE id = $1`, id).
			Scan(&o.ID, &o.Attempts, &o.IsVerified)
		if err != nil {
			t.Fatalf("get otp: %v", err)
		}
		return o
	}
	return repo, get
}

var logID int64

func usage(status entity.UsageStatus) entity.UsageLog {
	logID++
	return entity.UsageLog{
		ID:        logID,
		UserID:    userID,
		Endpoint:  entity.EndpointVerify,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

func newOTP(id, email string, createdAt time.Time) entity.OTP {
	return entity.OTP{
		ID:        id,
		UserID:    userID,
		Email:     email,
		CodeHash:  "hash-" + id,
		ExpiresAt: createdAt.Add(entity.TTL),
		CreatedAt: createdAt,
	}
}

func TestDB_LatestUnverified(t *testing.T) {
	// Arrange
	repo, _ := newDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, o := range []entity.OTP{
		newOTP("a", "u@example.com", now.Add(-2*time.Minute)),
		newOTP("b", "u@example.com", now),
		newOTP("c", "other@example.com", now.Add(time.Minute)),
	} {
		if err := repo.CreateOTP(ctx, o, usage(entity.UsageStatusSuccess)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	// Act
	got, err := repo.GetLatestUnverifiedOTP(ctx, "u@example.com")

	// Assert
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got.ID != "b" || got.CodeHash != "hash-b" || got.Attempts != 0 || got.IsVerified {
		t.Fatalf("unexpected latest %+v", got)
	}
	if !got.ExpiresAt.Equal(now.Add(entity.TTL)) {
		t.Fatalf("expires_at = %v", got.ExpiresAt)
	}

	_, err = repo.GetLatestUnverifiedOTP(ctx, "nobody@example.com")
	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDB_IncrementStopsAtMax(t *testing.T) {
	// Arrange
	repo, get := newDB(t)
	ctx := context.Background()
	if err := repo.CreateOTP(ctx, newOTP("x", "u@example.com", time.Now().UTC()), usage(entity.UsageStatusSuccess)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Act
	var applied int
	for range entity.MaxAttempts + 2 {
		ok, err := repo.IncrementOTPAttempts(ctx, "x", usage(entity.UsageStatusFailed))
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if ok {
			applied++
		}
	}

	// Assert
	if applied != entity.MaxAttempts {
		t.Fatalf("applied = %d, want %d", applied, entity.MaxAttempts)
	}
	if got := get("x"); got.Attempts != entity.MaxAttempts {
		t.Fatalf("attempts = %d", got.Attempts)
	}

	ok, err := repo.MarkOTPVerified(ctx, "x", time.Now().UTC(), usage(entity.UsageStatusSuccess))
	if err != nil || ok {
		t.Fatalf("exhausted record must not verify: ok=%v err=%v", ok, err)
	}
}

func TestDB_MarkVerifiedOnce(t *testing.T) {
	// Arrange
	repo, get := newDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	if err := repo.CreateOTP(ctx, newOTP("y", "u@example.com", now), usage(entity.UsageStatusSuccess)); err != nil {
		t.Fatalf("create: %v", err)
	}

	logs := make([]entity.UsageLog, 8)
	for i := range logs {
		logs[i] = usage(entity.UsageStatusSuccess)
	}

	// Act
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := range logs {
		wg.Go(func() {
			ok, err := repo.MarkOTPVerified(ctx, "y", now, logs[i])
			if err != nil {
				t.Errorf("mark verified: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	// Assert
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if !get("y").IsVerified {
		t.Fatal("record must be verified")
	}
	if _, err := repo.GetLatestUnverifiedOTP(ctx, "u@example.com"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("verified record must not be active: %v", err)
	}
}

func TestDB_MarkVerifiedRespectsExpiry(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{name: "at expiry", offset: 0, want: true},
		{name: "after expiry", offset: time.Millisecond, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			repo, get := newDB(t)
			ctx := context.Background()
			created := time.Now().UTC().Truncate(time.Microsecond)
			otp := newOTP("z", "u@example.com", created)
			if err := repo.CreateOTP(ctx, otp, usage(entity.UsageStatusSuccess)); err != nil {
				t.Fatalf("create: %v", err)
			}

			// Act
			ok, err := repo.MarkOTPVerified(ctx, "z", otp.ExpiresAt.Add(tt.offset), usage(entity.UsageStatusSuccess))

			// Assert
			if err != nil {
				t.Fatalf("mark verified: %v", err)
			}
			if ok != tt.want || get("z").IsVerified != tt.want {
				t.Fatalf("ok = %v verified = %v, want %v", ok, get("z").IsVerified, tt.want)
			}
		})
	}
}

func TestDB_CreateUsageLogUnknownUser(t *testing.T) {
	// Arrange
	repo, _ := newDB(t)
	log := usage(entity.UsageStatusFailed)
	log.UserID = 999

	// Act
	err := repo.CreateUsageLog(context.Background(), log)

	// Assert
	if err == nil {
		t.Fatal("usage log must reference an existing user")
	}
}
