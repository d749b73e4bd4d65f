// Package config exposes typed read access to the service configuration.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values and scales them to a duration unit.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}

// SignedIntConfig reads signed integers.
type SignedIntConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
}

// UnsignedIntConfig reads unsigned integers.
type UnsignedIntConfig interface {
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
}

// FloatConfig reads floating point numbers.
type FloatConfig interface {
	GetFloat32(key string) float32
	GetFloat64(key string) float64
}

// Config is the read-only configuration contract used across the service.
//
// Missing keys yield zero values; callers validate what they require at
// startup.
type Config interface {
	io.Closer
	TimeConfig
	SignedIntConfig
	UnsignedIntConfig
	FloatConfig

	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray reads either a list or a comma separated string. Empty
	// elements are dropped.
	GetArray(key string) []string

	// GetMap reads either a map or a "k:v,k:v" string.
	GetMap(key string) map[string]string
}
