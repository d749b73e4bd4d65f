package uid

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUID_GenerateVersion7(t *testing.T) {
	// Act
	id := NewUUID().Generate()

	// Assert
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("parse uuid: %v", err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected version 7, got %d", parsed.Version())
	}
}

func TestSnowflake_GenerateUniqueIncreasing(t *testing.T) {
	// Arrange
	gen, err := NewSnowflakeWithNode(3)
	if err != nil {
		t.Fatalf("new snowflake: %v", err)
	}

	// Act
	prev := gen.Generate()
	for range 1000 {
		next := gen.Generate()

		// Assert
		if next <= prev {
			t.Fatalf("expected increasing ids, got %d after %d", next, prev)
		}
		prev = next
	}
}

func TestSnowflake_InvalidNode(t *testing.T) {
	if _, err := NewSnowflakeWithNode(4096); err == nil {
		t.Fatalf("expected error for out of range node")
	}
}
