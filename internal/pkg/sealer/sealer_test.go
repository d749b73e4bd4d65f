package sealer

import (
	"bytes"
	"errors"
	"testing"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewAESGCM_KeyLength(t *testing.T) {
	if _, err := NewAESGCM([]byte("short")); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("err = %v, want ErrInvalidKeyLength", err)
	}
}

func TestAESGCM_SealOpen(t *testing.T) {
	// Arrange
	s, err := NewAESGCM(testKey)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	aad := []byte("otp.issued:jane@example.com")

	// Act
	sealed, err := s.Seal([]byte("123456"), aad)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	plain, err := s.Open(sealed, aad)

	// Assert
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(plain) != "123456" {
		t.Fatalf("plain = %q", plain)
	}
	if bytes.Contains(sealed, []byte("123456")) {
		t.Fatal("sealed value leaks plaintext")
	}
}

func TestAESGCM_SealUsesFreshNonce(t *testing.T) {
	s, _ := NewAESGCM(testKey)

	a, _ := s.Seal([]byte("123456"), nil)
	b, _ := s.Seal([]byte("123456"), nil)

	if bytes.Equal(a, b) {
		t.Fatal("two seals of the same plaintext are identical")
	}
}

func TestAESGCM_OpenRejects(t *testing.T) {
	s, _ := NewAESGCM(testKey)
	other, _ := NewAESGCM([]byte("fedcba9876543210fedcba9876543210"))
	sealed, _ := s.Seal([]byte("123456"), []byte("a"))

	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-1] ^= 0xff

	badVersion := bytes.Clone(sealed)
	badVersion[0] = 9

	tests := []struct {
		name   string
		sealer *AESGCM
		in     []byte
		aad    string
		want   error
	}{
		{name: "wrong aad", sealer: s, in: sealed, aad: "b", want: ErrOpenFailed},
		{name: "wrong key", sealer: other, in: sealed, aad: "a", want: ErrOpenFailed},
		{name: "tampered", sealer: s, in: tampered, aad: "a", want: ErrOpenFailed},
		{name: "version", sealer: s, in: badVersion, aad: "a", want: ErrUnsupportedVersion},
		{name: "truncated", sealer: s, in: sealed[:10], aad: "a", want: ErrCiphertextTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.sealer.Open(tt.in, []byte(tt.aad))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAESGCM_SealEmpty(t *testing.T) {
	s, _ := NewAESGCM(testKey)

	if _, err := s.Seal(nil, nil); !errors.Is(err, ErrPlaintextEmpty) {
		t.Fatalf("err = %v", err)
	}
}
