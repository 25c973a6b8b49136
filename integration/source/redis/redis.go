package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/flowkit/core/stream"
)

// Config holds Redis connection configuration with environment variable
// mapping. Supports both redis:// and rediss:// (TLS) URL schemes.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// Connect creates a Redis client, verifying connectivity with a ping before
// returning. Transient failures are retried up to RetryAttempts times with
// RetryInterval between attempts, all bounded by ConnectTimeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := redis.NewClient(opt)

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, errors.Join(ErrRedisNotReady, lastErr, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	_ = client.Close()
	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

// Healthcheck returns a health check function that verifies Redis
// connectivity with a ping. Suitable for readiness and liveness probes.
func Healthcheck(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Source returns a cold stream of Redis Pub/Sub messages from the given
// channels. Each Collect call opens its own Redis subscription and yields
// messages until the context ends, so wrapping the source with sharing.Share
// lets any number of local subscribers share a single Redis subscription:
//
//	messages, err := sharing.Share(ctx, redis.Source(client, "events"),
//	    sharing.WithStrategy(sharing.Lazily),
//	)
func Source(client *redis.Client, channels ...string) stream.Stream[*redis.Message] {
	return stream.Func[*redis.Message](func(ctx context.Context, sink stream.Sink[*redis.Message]) error {
		if len(channels) == 0 {
			return ErrNoChannels
		}

		pubsub := client.Subscribe(ctx, channels...)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case msg, ok := <-ch:
				if !ok {
					return ErrSubscriptionLost
				}
				if err := sink(ctx, msg); err != nil {
					return err
				}
			}
		}
	})
}
