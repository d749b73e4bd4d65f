package clock

import (
	"testing"
	"time"
)

func TestTimeClocker_NowIsUTC(t *testing.T) {
	// Arrange
	c := New()

	// Act
	now := c.Now()

	// Assert
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", now.Location())
	}
}

func TestFixed_Advance(t *testing.T) {
	// Arrange
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewFixed(start)

	// Act
	c.Advance(5*time.Minute + time.Second)

	// Assert
	if got, want := c.Now(), start.Add(5*time.Minute+time.Second); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
