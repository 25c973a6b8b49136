package broadcast

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/flowkit/core/logger"
)

type subscriberID = uuid.UUID

// Subscription is one consumer of a broadcaster. It holds a cursor into the
// shared buffer and delivers values in emission order, independently of
// other subscribers.
//
// A subscription ends when Close is called or when the context passed to
// Subscribe is cancelled. Ending a subscription never affects other
// subscribers or the emitter.
type Subscription[T any] struct {
	b      *Broadcaster[T]
	id     subscriberID
	cursor int64

	ctx    context.Context
	done   chan struct{}
	closed bool // guarded by b.mu
}

// Subscribe registers a new subscriber. Its cursor starts at the oldest
// retained value when no other subscriber exists (replaying the whole
// backlog), otherwise at the start of the replay window.
//
// The context bounds the subscription's lifetime: when it is cancelled the
// subscription closes and any blocked Next call returns the context error.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) *Subscription[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Subscription[T]{
		b:    b,
		id:   uuid.New(),
		ctx:  ctx,
		done: make(chan struct{}),
	}

	b.mu.Lock()
	if len(b.subs) == 0 {
		s.cursor = b.head
	} else {
		s.cursor = max(b.head, b.nextIndexLocked()-int64(b.replay))
	}
	b.subs[s.id] = s
	count := len(b.subs)
	b.publishCountLocked()
	b.mu.Unlock()

	b.logger.Debug("subscriber registered",
		logger.SubscriberID(s.id.String()),
		logger.SubscriberCount(count))

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = s.Close()
			case <-s.done:
			}
		}()
	}

	return s
}

// Next returns the next value in emission order, suspending while the
// subscriber is caught up. The context bounds this single call; an expired
// context leaves the subscription usable.
//
// Under the DropOldest policy a slow subscriber's cursor may have been
// advanced past evicted values; Next silently resumes at the oldest retained
// value.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}

	b := s.b
	for {
		b.mu.Lock()
		if s.closed {
			b.mu.Unlock()
			return zero, ErrSubscriptionClosed
		}
		if s.cursor < b.head {
			s.cursor = b.head
		}
		if s.cursor < b.nextIndexLocked() {
			v := b.items[s.cursor-b.head]
			s.cursor++
			b.compactLocked()
			b.resumeEmittersLocked()
			b.mu.Unlock()
			return v, nil
		}
		wait := b.notify
		b.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-s.ctx.Done():
			return zero, s.ctx.Err()
		}
	}
}

// Close unregisters the subscriber and wakes any blocked Next call. It is
// safe to call multiple times; subsequent calls return ErrSubscriptionClosed.
func (s *Subscription[T]) Close() error {
	b := s.b

	b.mu.Lock()
	if s.closed {
		b.mu.Unlock()
		return ErrSubscriptionClosed
	}
	s.closed = true
	close(s.done)
	delete(b.subs, s.id)
	count := len(b.subs)
	b.publishCountLocked()
	b.compactLocked()
	b.resumeEmittersLocked()
	b.notifyLocked()
	b.mu.Unlock()

	b.logger.Debug("subscriber removed",
		logger.SubscriberID(s.id.String()),
		logger.SubscriberCount(count))

	return nil
}
