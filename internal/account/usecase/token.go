package usecase

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/shandysiswandi/otpify/internal/account/entity"
)

const tokenBytes = 32

// randomToken returns 32 random bytes as unpadded base64url (43 characters).
func randomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Usecase) newAPIKey() (string, error) {
	tok, err := s.genToken()
	if err != nil {
		return "", err
	}
	return entity.APIKeyPrefix + tok, nil
}
