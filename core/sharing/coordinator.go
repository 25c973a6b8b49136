package sharing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/flowkit/core/broadcast"
	"github.com/dmitrymomot/flowkit/core/logger"
)

// coordinator drives one producer task per sharing session. It consumes the
// strategy's command stream with latest-wins semantics: a command arriving
// while a producer runs cancels that producer before being handled.
type coordinator struct {
	strategy   Strategy
	counts     *broadcast.ReadonlyState[int]
	collect    func(ctx context.Context) error
	reset      func()
	logger     *slog.Logger
	errHandler func(error)
}

// run blocks until the session context ends. The buffer is unconditionally
// reset as the final cleanup step, whatever command was last active.
func (c *coordinator) run(ctx context.Context) {
	defer c.reset()

	var cancelProducer context.CancelFunc
	var producerDone chan struct{}

	stopProducer := func() {
		if cancelProducer == nil {
			return
		}
		cancelProducer()
		<-producerDone
		cancelProducer, producerDone = nil, nil
	}
	defer stopProducer()

	cmds := c.strategy.Commands(c.counts)
	err := cmds.Collect(ctx, func(ctx context.Context, cmd Command) error {
		c.logger.Debug("sharing command received", logger.Command(cmd.String()))

		stopProducer()

		switch cmd {
		case Start:
			pctx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			cancelProducer, producerDone = cancel, done

			go func() {
				defer close(done)
				start := time.Now()
				err := c.collect(pctx)
				switch {
				case err == nil:
					c.logger.Debug("shared producer completed", logger.Elapsed(start))
				case errors.Is(err, context.Canceled):
					c.logger.Debug("shared producer cancelled", logger.Elapsed(start))
				default:
					c.logger.Error("shared producer failed", logger.Error(err))
					if c.errHandler != nil {
						c.errHandler(err)
					}
				}
			}()

		case Stop:
			// Producer already cancelled above; buffered values remain.

		case StopAndReset:
			c.reset()
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		c.logger.Error("sharing strategy failed", logger.Error(err))
		if c.errHandler != nil {
			c.errHandler(err)
		}
	}

	// Eagerly and Lazily complete their command stream after the first
	// Start; the session stays alive until the scope ends.
	if ctx.Err() == nil {
		<-ctx.Done()
	}
}
