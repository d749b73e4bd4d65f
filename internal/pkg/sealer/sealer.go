package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Sealer encrypts and decrypts values bound to associated data.
type Sealer interface {
	// Seal returns ciphertext for plaintext bound to aad.
	Seal(plaintext, aad []byte) ([]byte, error)
	// Open returns the plaintext of ciphertext, which must have been sealed
	// with the same aad.
	Open(ciphertext, aad []byte) ([]byte, error)
}

// Ciphertext layout:
// [0..1]   uint16 version
// [2..13]  nonce
// [14..]   gcm.Seal output (ciphertext + tag)
const version uint16 = 1

const (
	nonceSize = 12
	keyLen    = 32
	headerLen = 2 + nonceSize
)

var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("sealer: key must be 32 bytes")
	// ErrPlaintextEmpty indicates an empty plaintext input.
	ErrPlaintextEmpty = errors.New("sealer: plaintext is empty")
	// ErrCiphertextTooShort indicates a truncated ciphertext.
	ErrCiphertextTooShort = errors.New("sealer: ciphertext too short")
	// ErrUnsupportedVersion indicates an unknown ciphertext version.
	ErrUnsupportedVersion = errors.New("sealer: unsupported ciphertext version")
	// ErrOpenFailed indicates the ciphertext, key or aad did not match.
	ErrOpenFailed = errors.New("sealer: open failed")
)

// AESGCM implements Sealer with AES-256-GCM.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds an AES-256-GCM sealer from a 32 byte key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != keyLen {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sealer: aes init failed: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("sealer: gcm init failed: %w", err)
	}

	return &AESGCM{aead: aead}, nil
}

func (s *AESGCM) Seal(plaintext, aad []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	out := make([]byte, headerLen, headerLen+len(plaintext)+s.aead.Overhead())
	binary.BigEndian.PutUint16(out[0:2], version)
	if _, err := io.ReadFull(rand.Reader, out[2:headerLen]); err != nil {
		return nil, fmt.Errorf("sealer: nonce generation failed: %w", err)
	}

	return s.aead.Seal(out, out[2:headerLen], plaintext, digest(aad)), nil
}

func (s *AESGCM) Open(ciphertext, aad []byte) ([]byte, error) {
	if len(ciphertext) < headerLen+s.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	if v := binary.BigEndian.Uint16(ciphertext[0:2]); v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	plain, err := s.aead.Open(nil, ciphertext[2:headerLen], ciphertext[headerLen:], digest(aad))
	if err != nil {
		// Never say whether the key, aad or payload was wrong.
		return nil, ErrOpenFailed
	}

	return plain, nil
}

// digest keeps the aad fixed length regardless of what callers bind to.
func digest(aad []byte) []byte {
	sum := sha256.Sum256(aad)
	return sum[:]
}
