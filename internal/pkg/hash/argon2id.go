package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrArgon2idMalformed is returned when an encoded digest cannot be parsed.
var ErrArgon2idMalformed = errors.New("hash: malformed argon2id digest")

// Argon2idOptions tunes the Argon2id work factors. Zero values use defaults.
type Argon2idOptions struct {
	// Memory is the memory cost in KiB.
	Memory uint32
	// Iterations is the time cost.
	Iterations uint32
	// Parallelism is the number of lanes.
	Parallelism uint8
	// MaxConcurrent caps simultaneous hash computations; 0 means unbounded.
	MaxConcurrent int
}

// Argon2id implements Hash using Argon2id in the PHC string format.
type Argon2id struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
	pepper      string
	sema        chan struct{}
}

// NewArgon2id returns an Argon2id hasher.
func NewArgon2id(pepper string, opts Argon2idOptions) *Argon2id {
	a := &Argon2id{
		memory:      32 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
		pepper:      pepper,
	}
	if opts.Memory > 0 {
		a.memory = opts.Memory
	}
	if opts.Iterations > 0 {
		a.iterations = opts.Iterations
	}
	if opts.Parallelism > 0 {
		a.parallelism = opts.Parallelism
	}
	if opts.MaxConcurrent > 0 {
		a.sema = make(chan struct{}, opts.MaxConcurrent)
	}
	return a
}

// Hash returns "$argon2id$v=..$m=..,t=..,p=..$salt$key".
func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: generate salt: %w", err)
	}

	key := a.derive(str, salt, a.iterations, a.memory, a.parallelism, a.keyLength)

	return fmt.Appendf(nil,
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.memory,
		a.iterations,
		a.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters embedded in hashed.
func (a *Argon2id) Verify(hashed, str string) bool {
	p, err := parseArgon2id(hashed)
	if err != nil {
		return false
	}

	computed := a.derive(str, p.salt, p.iterations, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(p.key, computed) == 1
}

func (a *Argon2id) derive(str string, salt []byte, t, m uint32, p uint8, keyLen uint32) []byte {
	if a.sema != nil {
		a.sema <- struct{}{}
		defer func() { <-a.sema }()
	}
	return argon2.IDKey([]byte(str+a.pepper), salt, t, m, p, keyLen)
}

type argon2idParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseArgon2id(encoded string) (argon2idParams, error) {
	var p argon2idParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, ErrArgon2idMalformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, ErrArgon2idMalformed
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, ErrArgon2idMalformed
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, ErrArgon2idMalformed
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return p, ErrArgon2idMalformed
	}

	return p, nil
}
