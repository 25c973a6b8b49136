package sharing

import (
	"context"
	"io"
	"log/slog"

	"github.com/dmitrymomot/flowkit/core/broadcast"
	"github.com/dmitrymomot/flowkit/core/logger"
	"github.com/dmitrymomot/flowkit/core/stream"
)

// DefaultBufferCapacity is the extra buffer capacity used by Share when
// neither an option nor a fused stream.Buffered wrapper specifies one.
const DefaultBufferCapacity = 64

type shareConfig struct {
	replay      int
	capacity    int
	capacitySet bool
	policy      stream.Overflow
	policySet   bool
	strategy    Strategy
	logger      *slog.Logger
	errHandler  func(error)
}

// ShareOption configures a sharing session.
type ShareOption func(*shareConfig)

// WithReplay sets how many of the most recent values are replayed to new
// subscribers. Default is 0.
func WithReplay(n int) ShareOption {
	return func(c *shareConfig) {
		c.replay = n
	}
}

// WithBufferCapacity sets the extra buffer capacity of the shared broadcast,
// overriding both the default and any fused buffered wrapper.
func WithBufferCapacity(n int) ShareOption {
	return func(c *shareConfig) {
		c.capacity = n
		c.capacitySet = true
	}
}

// WithOverflow sets the overflow policy of the shared broadcast, overriding
// both the default and any fused buffered wrapper.
func WithOverflow(policy stream.Overflow) ShareOption {
	return func(c *shareConfig) {
		c.policy = policy
		c.policySet = true
	}
}

// WithStrategy sets the start/stop strategy. Default is Eagerly.
func WithStrategy(s Strategy) ShareOption {
	return func(c *shareConfig) {
		c.strategy = s
	}
}

// WithLogger configures structured logging for the sharing session and its
// broadcast. Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable.
func WithLogger(logger *slog.Logger) ShareOption {
	return func(c *shareConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorHandler registers a callback invoked when the upstream producer
// fails. Upstream failure stops the producer but leaves the broadcast
// subscribable; the handler is the place to escalate it to the owning scope.
func WithErrorHandler(fn func(error)) ShareOption {
	return func(c *shareConfig) {
		c.errHandler = fn
	}
}

func newShareConfig(opts []ShareOption) *shareConfig {
	cfg := &shareConfig{
		policy:   stream.Suspend,
		strategy: Eagerly,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Share turns a cold upstream stream into a hot broadcast driven by a single
// shared producer. The strategy decides when the producer runs, based on the
// broadcast's subscriber count; the session lives until ctx ends, at which
// point the producer is cancelled and the buffer reset.
//
// A directly-chained stream.Buffered wrapper is fused: its capacity and
// overflow policy become the broadcast's extra-buffer configuration and no
// separate buffering stage runs.
//
// Example:
//
//	ws, err := sharing.NewWhileSubscribed(5 * time.Second)
//	if err != nil {
//	    return err
//	}
//	events, err := sharing.Share(ctx, upstream,
//	    sharing.WithReplay(1),
//	    sharing.WithStrategy(ws),
//	)
func Share[T any](ctx context.Context, upstream stream.Stream[T], opts ...ShareOption) (*broadcast.Readonly[T], error) {
	if upstream == nil {
		return nil, ErrNilUpstream
	}
	cfg := newShareConfig(opts)
	if cfg.strategy == nil {
		return nil, ErrNilStrategy
	}

	source := upstream
	capacity, policy := DefaultBufferCapacity, cfg.policy
	if inner, fusedCap, fusedPolicy, ok := stream.UnwrapBuffered(upstream); ok {
		source = inner
		if !cfg.capacitySet {
			capacity = fusedCap
		}
		if !cfg.policySet {
			policy = fusedPolicy
		}
	}
	if cfg.capacitySet {
		capacity = cfg.capacity
	}

	b, err := broadcast.New[T](
		broadcast.WithReplay(cfg.replay),
		broadcast.WithBufferCapacity(capacity),
		broadcast.WithOverflow(policy),
		broadcast.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, err
	}

	cfg.logger.Debug("sharing session started",
		logger.Policy(policy.String()),
		logger.Count("replay", cfg.replay),
		logger.Count("buffer_capacity", capacity))

	co := &coordinator{
		strategy:   cfg.strategy,
		counts:     b.SubscriberCount(),
		collect:    func(ctx context.Context) error { return b.CollectFrom(ctx, source) },
		reset:      b.Reset,
		logger:     cfg.logger,
		errHandler: cfg.errHandler,
	}
	go co.run(ctx)

	return b.Readonly(), nil
}

// StateIn turns a cold upstream stream into a live latest-value view seeded
// with initial. Conflation subsumes buffering, so a directly-chained
// stream.Buffered wrapper is unwrapped and its configuration discarded.
// StopAndReset and the final session cleanup re-seed the state to initial.
func StateIn[T any](ctx context.Context, upstream stream.Stream[T], initial T, opts ...ShareOption) (*broadcast.ReadonlyState[T], error) {
	if upstream == nil {
		return nil, ErrNilUpstream
	}
	cfg := newShareConfig(opts)
	if cfg.strategy == nil {
		return nil, ErrNilStrategy
	}

	source := upstream
	if inner, _, _, ok := stream.UnwrapBuffered(upstream); ok {
		source = inner
	}

	st := broadcast.NewState(initial)

	co := &coordinator{
		strategy: cfg.strategy,
		counts:   st.SubscriberCount(),
		collect: func(ctx context.Context) error {
			return source.Collect(ctx, func(_ context.Context, v T) error {
				st.Set(v)
				return nil
			})
		},
		reset:      func() { st.Reset(initial) },
		logger:     cfg.logger,
		errHandler: cfg.errHandler,
	}
	go co.run(ctx)

	return st.Readonly(), nil
}

// StateInWait is the StateIn variant without an initial value: it starts the
// producer eagerly, blocks until the first value arrives, and returns a live
// view seeded with it. A repeated emission of the same value afterwards does
// not re-notify subscribers.
func StateInWait[T any](ctx context.Context, upstream stream.Stream[T], opts ...ShareOption) (*broadcast.ReadonlyState[T], error) {
	shared, err := Share(ctx, upstream, append(opts, WithReplay(1), WithStrategy(Eagerly))...)
	if err != nil {
		return nil, err
	}

	sub := shared.Subscribe(ctx)
	first, err := sub.Next(ctx)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	st := broadcast.NewState(first)
	go func() {
		defer sub.Close()
		for {
			v, err := sub.Next(ctx)
			if err != nil {
				return
			}
			st.Set(v)
		}
	}()

	return st.Readonly(), nil
}
