package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT generates and verifies bearer tokens.
type JWT interface {
	// Generate creates a signed token for the user.
	Generate(uid int64, email string) (string, error)
	// Verify parses and validates the token and returns claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type authContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key, at least 64 bytes.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTL is the token lifetime.
	TTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Claims carries the registered claims plus the authenticated user.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the authenticated user identifier.
	UserID int64 `json:"user_id,string"`
	// UserEmail is the authenticated user email.
	UserEmail string `json:"user_email"`
}

// GetAuth returns the claims stored in ctx, or nil for anonymous requests.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authContextKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

// SetAuth stores verified claims in ctx.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authContextKey{}, clm)
}
