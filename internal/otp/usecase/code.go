package usecase

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/shandysiswandi/otpify/internal/otp/entity"
)

var ten = big.NewInt(10)

// generateCode draws every digit independently from the system CSPRNG, so
// leading zeros are as likely as any other digit.
func generateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(entity.CodeLength)

	for range entity.CodeLength {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}
