package entity

import (
	"strings"
	"time"
)

const (
	// CodeLength is the number of decimal digits in a code.
	CodeLength = 6
	// MaxAttempts is the number of failed comparisons a record tolerates.
	MaxAttempts = 5
	// TTL is how long a code stays valid after issuance.
	TTL = 5 * time.Minute
)

type OTP struct {
	ID         string
	UserID     int64
	Email      string
	CodeHash   string
	ExpiresAt  time.Time
	Attempts   int16
	IsVerified bool
	CreatedAt  time.Time
}

// IsExpired reports whether now is strictly after the expiry instant.
func (o OTP) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

func (o OTP) AttemptsExhausted() bool {
	return o.Attempts >= MaxAttempts
}

// NormalizeEmail is the address identity shared by the store and the
// issuance limiter. Only the domain is case-insensitive, so the local part
// is kept as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// Delivery is what the dispatcher needs to email a freshly issued code.
type Delivery struct {
	UserID    int64
	Email     string
	Code      string
	ExpiresAt time.Time
}
