// Package cache keeps resolved API key owners in Redis so the OTP endpoints
// do not hit Postgres on every call.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpify/internal/account/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/goerror"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "account:apikey:"

type Cache struct {
	client redis.Cmdable
	ins    instrument.Instrumentation
}

func New(client redis.Cmdable, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("account.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) GetAPIKeyOwner(ctx context.Context, key string) (_ *entity.APIKeyOwner, err error) {
	ctx, span := c.startSpan(ctx, "GetAPIKeyOwner")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var owner entity.APIKeyOwner
	if err := json.Unmarshal(raw, &owner); err != nil {
		return nil, err
	}

	return &owner, nil
}

func (c *Cache) SetAPIKeyOwner(ctx context.Context, key string, owner entity.APIKeyOwner, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SetAPIKeyOwner")
	defer func() { c.endSpan(span, err) }()

	raw, err := json.Marshal(owner)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, keyPrefix+key, raw, ttl).Err()
}

func (c *Cache) DeleteAPIKeyOwner(ctx context.Context, key string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteAPIKeyOwner")
	defer func() { c.endSpan(span, err) }()

	return c.client.Del(ctx, keyPrefix+key).Err()
}
