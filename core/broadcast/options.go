package broadcast

import (
	"io"
	"log/slog"

	"github.com/dmitrymomot/flowkit/core/stream"
)

type config struct {
	replay   int
	capacity int
	policy   stream.Overflow
	logger   *slog.Logger
	counted  bool
}

// Option configures a Broadcaster.
type Option func(*config)

// WithReplay sets how many of the most recent values are retained and
// replayed to new subscribers. Default is 0 (no replay).
func WithReplay(n int) Option {
	return func(c *config) {
		c.replay = n
	}
}

// WithBufferCapacity sets the number of extra buffer slots on top of the
// replay window. These slots absorb bursts before the overflow policy kicks
// in. Default is 0.
func WithBufferCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// WithOverflow sets the behavior when the buffer is full. Default is
// stream.Suspend, which blocks the emitter until a subscriber frees a slot.
func WithOverflow(policy stream.Overflow) Option {
	return func(c *config) {
		c.policy = policy
	}
}

// WithLogger configures structured logging for subscriber lifecycle events.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultConfig() *config {
	return &config{
		policy:  stream.Suspend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		counted: true,
	}
}

func (c *config) validate() error {
	if c.replay < 0 {
		return ErrNegativeReplay
	}
	if c.capacity < 0 {
		return ErrNegativeCapacity
	}
	return nil
}
