package entity

import (
	"strings"
	"time"
)

// APIKeyPrefix starts every API key so leaked keys are easy to spot.
const APIKeyPrefix = "otp_"

type User struct {
	ID                int64
	Email             string
	FullName          string
	PasswordHash      string
	APIKey            string
	IsActive          bool
	ResetToken        string
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
}

// ResetTokenValid reports whether a reset token is set and unexpired at now.
func (u User) ResetTokenValid(now time.Time) bool {
	return u.ResetToken != "" && u.ResetTokenExpires != nil && !now.After(*u.ResetTokenExpires)
}

// APIKeyOwner is the cached projection used to authenticate OTP calls.
type APIKeyOwner struct {
	UserID   int64  `json:"user_id,string"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func LooksLikeAPIKey(key string) bool {
	return strings.HasPrefix(key, APIKeyPrefix) && len(key) > len(APIKeyPrefix)
}
