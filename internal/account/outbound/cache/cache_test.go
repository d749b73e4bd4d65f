package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpify/internal/account/entity"
	"github.com/shandysiswandi/otpify/internal/account/outbound/cache"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"github.com/shandysiswandi/otpify/internal/pkg/testkit"
)

func TestCache_APIKeyOwner(t *testing.T) {
	// Arrange
	client := testkit.Redis(t)
	c := cache.New(client, instrument.NewNoop())
	ctx := context.Background()
	owner := entity.APIKeyOwner{UserID: 7205759403792793607, Email: "a@example.com", IsActive: true}

	// Act
	_, missErr := c.GetAPIKeyOwner(ctx, "otp_x")
	setErr := c.SetAPIKeyOwner(ctx, "otp_x", owner, time.Minute)
	got, getErr := c.GetAPIKeyOwner(ctx, "otp_x")

	// Assert
	if !errors.Is(missErr, goerror.ErrNotFound) {
		t.Fatalf("expected not found on miss, got %v", missErr)
	}
	if setErr != nil || getErr != nil {
		t.Fatalf("set=%v get=%v", setErr, getErr)
	}
	if *got != owner {
		t.Fatalf("owner = %+v, want %+v", *got, owner)
	}
	if ttl := client.TTL(ctx, "account:apikey:otp_x").Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	if err := c.DeleteAPIKeyOwner(ctx, "otp_x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.GetAPIKeyOwner(ctx, "otp_x"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
