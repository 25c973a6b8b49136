package sharing

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dmitrymomot/flowkit/core/broadcast"
	"github.com/dmitrymomot/flowkit/core/stream"
)

// Strategy decides when the shared producer runs, based on the live
// subscriber-count signal. Implementations translate count transitions into
// a lazy sequence of commands consumed by the sharing coordinator.
//
// A strategy's command stream may complete early (Eagerly and Lazily do);
// the sharing session then keeps its last state until the scope ends.
type Strategy interface {
	Commands(counts *broadcast.ReadonlyState[int]) stream.Stream[Command]
}

// NeverExpires disables the replay-expiration step of WhileSubscribed.
const NeverExpires = time.Duration(math.MaxInt64)

// Eagerly starts the producer immediately and never stops it.
var Eagerly Strategy = eagerly{}

type eagerly struct{}

func (eagerly) Commands(_ *broadcast.ReadonlyState[int]) stream.Stream[Command] {
	return stream.FromSlice(Start)
}

// Lazily starts the producer when the first subscriber appears and never
// stops it afterwards.
var Lazily Strategy = lazily{}

type lazily struct{}

func (lazily) Commands(counts *broadcast.ReadonlyState[int]) stream.Stream[Command] {
	return stream.Func[Command](func(ctx context.Context, sink stream.Sink[Command]) error {
		sub := counts.Subscribe(ctx)
		defer sub.Close()
		for {
			n, err := sub.Next(ctx)
			if err != nil {
				return completion(err)
			}
			if n > 0 {
				return sink(ctx, Start)
			}
		}
	})
}

// WhileSubscribed runs the producer only while subscribers exist. When the
// count drops to zero it waits stopTimeout before stopping, and optionally
// waits replayExpiration more before also resetting the replay buffer. Any
// subscriber arriving during a wait cancels it and restarts the producer.
type WhileSubscribed struct {
	stopTimeout      time.Duration
	replayExpiration time.Duration
}

// WhileSubscribedOption configures a WhileSubscribed strategy.
type WhileSubscribedOption func(*WhileSubscribed)

// WithReplayExpiration sets how long after the producer stops the replay
// buffer is kept. Zero resets the buffer immediately on stop; the default
// NeverExpires keeps it forever.
func WithReplayExpiration(d time.Duration) WhileSubscribedOption {
	return func(ws *WhileSubscribed) {
		ws.replayExpiration = d
	}
}

// NewWhileSubscribed creates a WhileSubscribed strategy. A zero stopTimeout
// stops the producer as soon as the last subscriber leaves. Negative
// durations are configuration errors.
func NewWhileSubscribed(stopTimeout time.Duration, opts ...WhileSubscribedOption) (*WhileSubscribed, error) {
	ws := &WhileSubscribed{
		stopTimeout:      stopTimeout,
		replayExpiration: NeverExpires,
	}
	for _, opt := range opts {
		opt(ws)
	}
	if ws.stopTimeout < 0 {
		return nil, ErrNegativeStopTimeout
	}
	if ws.replayExpiration < 0 {
		return nil, ErrNegativeReplayExpiration
	}
	return ws, nil
}

// Commands implements the Strategy interface. The emitted sequence never
// leads with anything but Start and never repeats a command back-to-back.
func (ws *WhileSubscribed) Commands(counts *broadcast.ReadonlyState[int]) stream.Stream[Command] {
	return stream.Func[Command](func(ctx context.Context, sink stream.Sink[Command]) error {
		sub := counts.Subscribe(ctx)
		defer sub.Close()

		var started, haveLast bool
		var last Command
		emit := func(cmd Command) error {
			if !started {
				// Not having started yet is not "stopped": suppress any
				// leading stop command.
				if cmd != Start {
					return nil
				}
				started = true
			}
			if haveLast && cmd == last {
				return nil
			}
			haveLast, last = true, cmd
			return sink(ctx, cmd)
		}

		n, err := sub.Next(ctx)
		if err != nil {
			return completion(err)
		}
		for {
			if n > 0 {
				if err := emit(Start); err != nil {
					return err
				}
				if n, err = sub.Next(ctx); err != nil {
					return completion(err)
				}
				continue
			}

			// Count dropped to zero: pending waits are superseded by any
			// newer count value, restarting the state machine on it.
			next, superseded, err := awaitCount(ctx, sub, ws.stopTimeout)
			if err != nil {
				return completion(err)
			}
			if superseded {
				n = next
				continue
			}

			if ws.replayExpiration == 0 {
				if err := emit(StopAndReset); err != nil {
					return err
				}
			} else {
				if err := emit(Stop); err != nil {
					return err
				}
				if ws.replayExpiration != NeverExpires {
					next, superseded, err = awaitCount(ctx, sub, ws.replayExpiration)
					if err != nil {
						return completion(err)
					}
					if superseded {
						n = next
						continue
					}
					if err := emit(StopAndReset); err != nil {
						return err
					}
				}
			}

			if n, err = sub.Next(ctx); err != nil {
				return completion(err)
			}
		}
	})
}

// awaitCount waits up to d for the next count change. It reports
// superseded=true when a new count arrived before the timer fired.
func awaitCount(ctx context.Context, sub *broadcast.Subscription[int], d time.Duration) (int, bool, error) {
	wctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	n, err := sub.Next(wctx)
	if err == nil {
		return n, true, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return 0, false, nil
	}
	return 0, false, err
}

// completion maps a closed count subscription to normal command-stream
// completion; everything else (cancellation included) propagates.
func completion(err error) error {
	if errors.Is(err, broadcast.ErrSubscriptionClosed) {
		return nil
	}
	return err
}
