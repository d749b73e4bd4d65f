// Package limiter throttles code issuance per address with Redis keys: a
// cooldown between sends, a counter per window and a block once the counter
// overflows.
package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpify/internal/otp/entity"
	"github.com/shandysiswandi/otpify/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

type Config struct {
	Cooldown     time.Duration
	MaxPerWindow int64
	Window       time.Duration
	Block        time.Duration
}

type Limiter struct {
	client redis.Cmdable
	cfg    Config
	ins    instrument.Instrumentation
}

func New(client redis.Cmdable, cfg Config, ins instrument.Instrumentation) *Limiter {
	if cfg.Block <= 0 {
		cfg.Block = cfg.Window * 3
	}
	return &Limiter{client: client, cfg: cfg, ins: ins}
}

func keys(email string) (block, last, count string) {
	email = entity.NormalizeEmail(email)
	return "otp:limit:block:" + email, "otp:limit:last:" + email, "otp:limit:count:" + email
}

func (l *Limiter) Allow(ctx context.Context, email string) (_ bool, _ time.Duration, err error) {
	ctx, span := l.ins.Tracer("otp.outbound.limiter").Start(ctx, "Allow")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	blockKey, lastKey, countKey := keys(email)

	ttl, err := l.client.TTL(ctx, blockKey).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl > 0 {
		return false, ttl, nil
	}

	// Claiming the cooldown key is the check, so concurrent sends cannot
	// both pass.
	if l.cfg.Cooldown > 0 {
		claimed, err := l.client.SetNX(ctx, lastKey, "1", l.cfg.Cooldown).Result()
		if err != nil {
			return false, 0, err
		}
		if !claimed {
			ttl, err := l.client.TTL(ctx, lastKey).Result()
			if err != nil || ttl <= 0 {
				ttl = l.cfg.Cooldown
			}
			return false, ttl, nil
		}
	}

	if l.cfg.MaxPerWindow > 0 && l.cfg.Window > 0 {
		var incr *redis.IntCmd
		if _, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, countKey)
			pipe.ExpireNX(ctx, countKey, l.cfg.Window)
			return nil
		}); err != nil {
			return false, 0, err
		}

		if incr.Val() > l.cfg.MaxPerWindow {
			if err = l.client.Set(ctx, blockKey, "1", l.cfg.Block).Err(); err != nil {
				return false, 0, err
			}
			return false, l.cfg.Block, nil
		}
	}

	return true, 0, nil
}
