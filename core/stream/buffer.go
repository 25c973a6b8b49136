package stream

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Overflow selects what happens when a bounded buffer is full and a new value
// arrives. It is shared between the standalone Buffered stage and the
// broadcast package.
type Overflow int

const (
	// Suspend blocks the producer until the consumer frees a slot.
	Suspend Overflow = iota

	// DropOldest evicts the oldest buffered value to make room for the new
	// one. Consumers observe a silent skip, not an error.
	DropOldest

	// DropLatest silently discards the incoming value and keeps the buffer
	// as is.
	DropLatest
)

// String returns a human-readable policy name for logging.
func (o Overflow) String() string {
	switch o {
	case Suspend:
		return "suspend"
	case DropOldest:
		return "drop_oldest"
	case DropLatest:
		return "drop_latest"
	default:
		return "unknown"
	}
}

// buffered is a transparent wrapper around a source stream. The sharing
// package recognizes it and fuses its capacity and policy into the broadcast
// configuration instead of running a separate stage.
type buffered[T any] struct {
	source   Stream[T]
	capacity int
	policy   Overflow
}

// Buffered decouples the producer from the consumer through a bounded buffer
// of the given capacity. The overflow policy decides the behavior when the
// consumer falls behind.
//
// When a buffered stream is passed directly to sharing.Share, the wrapper is
// unwrapped and its configuration is adopted by the broadcast buffer, so no
// extra goroutine or channel stage runs.
func Buffered[T any](source Stream[T], capacity int, policy Overflow) (Stream[T], error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if capacity < 0 {
		return nil, ErrNegativeCapacity
	}
	return &buffered[T]{source: source, capacity: capacity, policy: policy}, nil
}

// UnwrapBuffered reports whether s is a Buffered wrapper and, if so, returns
// its source and configuration.
func UnwrapBuffered[T any](s Stream[T]) (source Stream[T], capacity int, policy Overflow, ok bool) {
	b, ok := s.(*buffered[T])
	if !ok {
		return nil, 0, Suspend, false
	}
	return b.source, b.capacity, b.policy, true
}

// Collect runs the source through a channel stage honoring the overflow
// policy. Used only when the wrapper was not fused away by sharing.Share.
func (b *buffered[T]) Collect(ctx context.Context, sink Sink[T]) error {
	capacity := b.capacity
	if capacity == 0 && b.policy != Suspend {
		// Drop policies need at least one slot to have something to evict.
		capacity = 1
	}
	ch := make(chan T, capacity)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ch)
		return b.source.Collect(ctx, func(ctx context.Context, v T) error {
			switch b.policy {
			case DropLatest:
				select {
				case ch <- v:
				default:
				}
				return nil
			case DropOldest:
				for {
					select {
					case ch <- v:
						return nil
					default:
					}
					select {
					case <-ch:
					default:
					}
					if err := ctx.Err(); err != nil {
						return err
					}
				}
			default: // Suspend
				select {
				case ch <- v:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-ch:
				if !ok {
					return nil
				}
				if err := sink(ctx, v); err != nil {
					return err
				}
			}
		}
	})

	return g.Wait()
}
