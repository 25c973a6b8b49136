// Package redis provides Redis client initialization and a Redis Pub/Sub
// stream source for use with the sharing package.
//
// Connect wraps the go-redis client with URL validation, retry logic, and a
// ping verification so that callers get a known-good client or an error:
//
//	cfg := redis.Config{
//	    ConnectionURL:  "redis://localhost:6379/0",
//	    RetryAttempts:  3,
//	    RetryInterval:  5 * time.Second,
//	    ConnectTimeout: 30 * time.Second,
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Source exposes one or more Pub/Sub channels as a cold stream. On its own,
// every Collect call opens a separate Redis subscription; shared through
// sharing.Share, a single Redis subscription serves every local subscriber
// and is closed when the last one leaves:
//
//	ws, err := sharing.NewWhileSubscribed(30 * time.Second)
//	if err != nil {
//	    return err
//	}
//
//	messages, err := sharing.Share(ctx, redis.Source(client, "orders"),
//	    sharing.WithStrategy(ws),
//	)
//
// Healthcheck returns a probe function for readiness and liveness endpoints.
//
// All configuration is handled through the Config struct with environment
// variable mapping (REDIS_URL, REDIS_RETRY_ATTEMPTS, REDIS_RETRY_INTERVAL,
// REDIS_CONNECT_TIMEOUT), loadable through the config package.
package redis
