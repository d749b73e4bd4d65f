package config

import (
	"testing"
	"time"
)

const sampleYAML = `
app:
  name: otpify
  server:
    cors: "http://a.test, http://b.test,"
modules:
  otp:
    ttl_seconds: 300
    log_rejections: true
    tags:
      - alpha
      - beta
storage:
  labels: "env:dev,team:core"
  extra:
    region: eu
secret: aGVsbG8=
`

func TestViper_Getters(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	// Assert
	if got := cfg.GetString("app.name"); got != "otpify" {
		t.Fatalf("unexpected app.name %q", got)
	}
	if got := cfg.GetSecond("modules.otp.ttl_seconds"); got != 5*time.Minute {
		t.Fatalf("unexpected ttl %v", got)
	}
	if !cfg.GetBool("modules.otp.log_rejections") {
		t.Fatalf("expected log_rejections true")
	}
	if got := cfg.GetArray("app.server.cors"); len(got) != 2 || got[1] != "http://b.test" {
		t.Fatalf("unexpected cors %v", got)
	}
	if got := cfg.GetArray("modules.otp.tags"); len(got) != 2 || got[0] != "alpha" {
		t.Fatalf("unexpected tags %v", got)
	}
	if got := cfg.GetArray("missing.key"); len(got) != 0 {
		t.Fatalf("expected empty array, got %v", got)
	}
	if got := cfg.GetMap("storage.labels"); got["team"] != "core" {
		t.Fatalf("unexpected labels %v", got)
	}
	if got := cfg.GetMap("storage.extra"); got["region"] != "eu" {
		t.Fatalf("unexpected extra %v", got)
	}
	if got := string(cfg.GetBinary("secret")); got != "hello" {
		t.Fatalf("unexpected binary %q", got)
	}
}

func TestViper_EnvOverride(t *testing.T) {
	// Arrange
	t.Setenv("OTPIFY_APP_NAME", "from-env")
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	// Act
	got := cfg.GetString("app.name")

	// Assert
	if got != "from-env" {
		t.Fatalf("expected env override, got %q", got)
	}
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", nil); err == nil {
		t.Fatalf("expected error for empty config type")
	}
}
