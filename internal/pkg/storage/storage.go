// Package storage writes objects to a bucket and hands out time-limited
// download links. The bucket is bound when the driver is built.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotConfigured is returned by Disabled for every write.
var ErrNotConfigured = errors.New("storage: no driver configured")

// Storage defines the object operations the service needs.
type Storage interface {
	io.Closer

	// Put uploads r under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// PresignGet returns a signed download URL for key valid for expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Disabled is used when no driver is configured.
type Disabled struct{}

func (Disabled) Put(context.Context, string, io.Reader, int64, string) error { return ErrNotConfigured }

func (Disabled) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error { return ErrNotConfigured }

func (Disabled) Close() error { return nil }
