package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256 digest (hex encoded).
//
// Output is deterministic, so it suits lookup tokens (for example password
// reset tokens) but not low-entropy secrets.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a hasher keyed with secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex encoded HMAC of str.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return s.sum(str), nil
}

// Verify compares in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return hmac.Equal([]byte(hashed), s.sum(str))
}

func (s *HMACSHA256) sum(str string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(str))
	raw := mac.Sum(nil)

	out := make([]byte, hex.EncodedLen(len(raw)))
	hex.Encode(out, raw)
	return out
}
