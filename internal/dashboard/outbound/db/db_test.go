package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/otpify/internal/dashboard/entity"
	"github.com/shandysiswandi/otpify/internal/dashboard/outbound/db"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/testkit"
)

func TestDB_Usage(t *testing.T) {
	// Arrange
	pool := testkit.Postgres(t)
	repo := db.NewDB(pool, instrument.NewNoop())
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for _, u := range []struct {
		id    int64
		email string
	}{{1, "a@example.com"}, {2, "b@example.com"}, {3, "c@example.com"}} {
		if _, err := pool.Exec(ctx, `INSERT INTO users (id, email, password_hash, api_key) VALUES ($1, $2, 'x', $2)`, u.id, u.email); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	if _, err := pool.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id = 3`); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	logs := []struct {
		id     int64
		user   int64
		status string
		ms     float64
		ts     time.Time
	}{
		{1, 1, "success", 10, today.Add(-3*24*time.Hour + time.Hour)},
		{2, 1, "failed", 20, today.Add(time.Minute)},
		{3, 1, "success", 30, today.Add(2 * time.Minute)},
		{4, 2, "success", 5, now.Add(-time.Hour)},
		{5, 3, "success", 5, now.Add(-48 * time.Hour)},
	}
	for _, l := range logs {
		if _, err := pool.Exec(ctx,
			`INSERT INTO usage_logs (id, user_id, endpoint, status, response_time_ms, timestamp) VALUES ($1, $2, '/api/otp/send', $3, $4, $5)`,
			l.id, l.user, l.status, l.ms, l.ts,
		); err != nil {
			t.Fatalf("seed log: %v", err)
		}
	}

	// Act
	sum, err := repo.GetSummary(ctx, 1)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	active, err := repo.CountActiveUsers(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	daily, err := repo.CountDaily(ctx, 1, today.AddDate(0, 0, -(entity.ChartDays-1)))
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	list, err := repo.ListLogs(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var streamed []int64
	if err := repo.EachLog(ctx, 1, func(l entity.LogEntry) error {
		streamed = append(streamed, l.ID)
		return nil
	}); err != nil {
		t.Fatalf("each: %v", err)
	}

	// Assert
	if sum.Total != 3 || sum.Success != 2 || sum.AvgResponseMS != 20 {
		t.Fatalf("summary = %+v", sum)
	}
	if active != 2 {
		t.Fatalf("active = %d, want the 2 enabled accounts", active)
	}
	if len(daily) != 2 || daily[0].Count != 1 || daily[1].Count != 2 || !daily[1].Day.Equal(today) {
		t.Fatalf("daily = %+v", daily)
	}
	if len(list) != 2 || list[0].ID != 3 || list[1].ID != 2 || list[0].UserEmail != "a@example.com" {
		t.Fatalf("list = %+v", list)
	}
	if len(streamed) != 3 || streamed[2] != 1 {
		t.Fatalf("streamed = %v", streamed)
	}

	empty, err := repo.GetSummary(ctx, 99)
	if err != nil || empty.Total != 0 || empty.AvgResponseMS != 0 {
		t.Fatalf("empty summary = %+v err %v", empty, err)
	}
}
