package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/flowkit/core/logger"
	"github.com/dmitrymomot/flowkit/core/stream"
)

// Broadcaster is a hot, multi-subscriber emission primitive. A single
// producer emits values and an arbitrary number of subscribers receive every
// value in emission order, each at its own pace, backed by a bounded replay
// buffer with a configurable overflow policy.
//
// A broadcaster never completes: subscribers simply suspend while no new
// value is available. Use Readonly to hand out a subscribe-only view and the
// sharing package to drive a broadcaster from a cold stream.
//
// Example:
//
//	b, err := broadcast.New[string](
//	    broadcast.WithReplay(2),
//	    broadcast.WithBufferCapacity(64),
//	)
//	if err != nil {
//	    return err
//	}
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	go b.Emit(ctx, "hello")
//
//	v, err := sub.Next(ctx)
type Broadcaster[T any] struct {
	mu sync.Mutex

	// Retained values. items[0] carries global index head; the next emission
	// gets index head+len(items). Indices are strictly increasing and never
	// reused, including across Reset.
	items []T
	head  int64

	subs   map[subscriberID]*Subscription[T]
	emitQ  []*pendingEmit[T]
	notify chan struct{}

	replay   int
	capacity int
	policy   stream.Overflow
	logger   *slog.Logger

	// counter publishes the live subscriber count. It is nil on the
	// broadcaster that backs the counter itself.
	counter *State[int]
}

type pendingEmit[T any] struct {
	value T
	done  chan struct{}
}

// New creates a broadcaster with the given options. It returns a
// configuration error for negative replay or capacity values.
func New[T any](opts ...Option) (*Broadcaster[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newBroadcaster[T](cfg), nil
}

func newBroadcaster[T any](cfg *config) *Broadcaster[T] {
	b := &Broadcaster[T]{
		subs:     make(map[subscriberID]*Subscription[T]),
		notify:   make(chan struct{}),
		replay:   cfg.replay,
		capacity: cfg.capacity,
		policy:   cfg.policy,
		logger:   cfg.logger,
	}
	if cfg.counted {
		b.counter = newCounterState()
	}
	return b
}

// Emit appends a value at the next global index. When the buffer is full the
// overflow policy decides: Suspend blocks until a subscriber frees a slot
// (blocked emitters are resumed in arrival order), DropOldest evicts the
// oldest buffered value, DropLatest discards v.
//
// A value emitted while no subscriber exists is still buffered, so the first
// subscriber to arrive replays the retained backlog.
func (b *Broadcaster[T]) Emit(ctx context.Context, v T) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.tryAppendLocked(v) {
		b.mu.Unlock()
		return nil
	}

	switch b.policy {
	case stream.DropLatest:
		b.mu.Unlock()
		return nil

	case stream.DropOldest:
		for !b.tryAppendLocked(v) && len(b.items) > 0 {
			b.dropHeadLocked()
		}
		b.mu.Unlock()
		return nil

	default: // stream.Suspend
		p := &pendingEmit[T]{value: v, done: make(chan struct{})}
		b.emitQ = append(b.emitQ, p)
		b.mu.Unlock()

		select {
		case <-p.done:
			return nil
		case <-ctx.Done():
			b.mu.Lock()
			for i, q := range b.emitQ {
				if q == p {
					b.emitQ = slices.Delete(b.emitQ, i, i+1)
					b.mu.Unlock()
					return ctx.Err()
				}
			}
			b.mu.Unlock()
			// The value was accepted concurrently with cancellation.
			return nil
		}
	}
}

// TryEmit is the non-blocking variant of Emit. It reports whether the value
// was handled: under Suspend a full buffer makes it return false, under the
// drop policies it always returns true.
func (b *Broadcaster[T]) TryEmit(v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tryAppendLocked(v) {
		return true
	}
	switch b.policy {
	case stream.DropLatest:
		return true
	case stream.DropOldest:
		for !b.tryAppendLocked(v) && len(b.items) > 0 {
			b.dropHeadLocked()
		}
		return true
	default:
		return false
	}
}

// CollectFrom drains the upstream stream into Emit. It returns when the
// upstream completes, fails, or the context is cancelled. The broadcaster
// itself stays subscribable afterwards, it is simply idle.
func (b *Broadcaster[T]) CollectFrom(ctx context.Context, s stream.Stream[T]) error {
	return s.Collect(ctx, func(ctx context.Context, v T) error {
		return b.Emit(ctx, v)
	})
}

// Reset atomically drops all retained values and advances the index baseline.
// Existing subscribers see no further replay, new subscribers start empty,
// and emitters blocked on a full buffer complete without their values being
// retained.
func (b *Broadcaster[T]) Reset() {
	b.mu.Lock()
	next := b.nextIndexLocked()
	b.items = nil
	b.head = next
	for _, s := range b.subs {
		s.cursor = next
	}
	for _, p := range b.emitQ {
		close(p.done)
	}
	b.emitQ = nil
	b.notifyLocked()
	b.mu.Unlock()

	b.logger.Debug("broadcast buffer reset", logger.Baseline(next))
}

// SubscriberCount exposes the live subscriber count as a read-only
// latest-value signal. Count changes are published atomically with the
// subscribe or unsubscribe that caused them.
func (b *Broadcaster[T]) SubscriberCount() *ReadonlyState[int] {
	if b.counter == nil {
		return nil
	}
	return b.counter.Readonly()
}

// Readonly returns a capability-restricted view of the broadcaster exposing
// only the non-mutating operations.
func (b *Broadcaster[T]) Readonly() *Readonly[T] {
	return &Readonly[T]{b: b}
}

// Stream adapts the broadcaster to a hot stream.Stream: each Collect call
// subscribes and delivers values until the context ends. The stream never
// completes on its own.
func (b *Broadcaster[T]) Stream() stream.Stream[T] {
	return stream.Func[T](func(ctx context.Context, sink stream.Sink[T]) error {
		sub := b.Subscribe(ctx)
		defer sub.Close()
		for {
			v, err := sub.Next(ctx)
			if err != nil {
				if errors.Is(err, ErrSubscriptionClosed) {
					return nil
				}
				return err
			}
			if err := sink(ctx, v); err != nil {
				return err
			}
		}
	})
}

// nextIndexLocked returns the global index the next emission will get.
func (b *Broadcaster[T]) nextIndexLocked() int64 {
	return b.head + int64(len(b.items))
}

func (b *Broadcaster[T]) minCursorLocked() int64 {
	min := int64(-1)
	for _, s := range b.subs {
		if min < 0 || s.cursor < min {
			min = s.cursor
		}
	}
	return min
}

// bufferedLocked counts emitted-but-undelivered values relative to the
// slowest subscriber, or the full retained backlog when nobody subscribes.
func (b *Broadcaster[T]) bufferedLocked() int64 {
	if len(b.subs) == 0 {
		return int64(len(b.items))
	}
	return b.nextIndexLocked() - b.minCursorLocked()
}

// effectiveCapLocked never reports less than one slot: a zero-capacity
// suspending broadcaster would otherwise deadlock its only emitter.
func (b *Broadcaster[T]) effectiveCapLocked() int64 {
	total := int64(b.replay + b.capacity)
	if total < 1 {
		return 1
	}
	return total
}

func (b *Broadcaster[T]) tryAppendLocked(v T) bool {
	// Queued emitters go first: a full buffer queued them, so a direct
	// append would reorder emissions.
	if len(b.emitQ) > 0 {
		return false
	}
	if b.bufferedLocked() >= b.effectiveCapLocked() {
		return false
	}
	b.items = append(b.items, v)
	b.notifyLocked()
	return true
}

// dropHeadLocked evicts the oldest retained value. Subscribers whose cursor
// pointed at it silently skip forward.
func (b *Broadcaster[T]) dropHeadLocked() {
	if len(b.items) == 0 {
		return
	}
	b.items = slices.Clone(b.items[1:])
	b.head++
	for _, s := range b.subs {
		if s.cursor < b.head {
			s.cursor = b.head
		}
	}
}

// compactLocked releases values that are outside the replay window and
// already delivered to every subscriber. With no subscribers the backlog is
// kept whole so the first subscriber can replay it.
func (b *Broadcaster[T]) compactLocked() {
	if len(b.subs) == 0 {
		return
	}
	keep := b.nextIndexLocked() - int64(b.replay)
	if mc := b.minCursorLocked(); mc < keep {
		keep = mc
	}
	if keep <= b.head {
		return
	}
	b.items = slices.Clone(b.items[keep-b.head:])
	b.head = keep
}

// resumeEmittersLocked moves queued emitter values into freed buffer slots
// in arrival order.
func (b *Broadcaster[T]) resumeEmittersLocked() {
	resumed := false
	for len(b.emitQ) > 0 && b.bufferedLocked() < b.effectiveCapLocked() {
		p := b.emitQ[0]
		b.emitQ = b.emitQ[1:]
		b.items = append(b.items, p.value)
		close(p.done)
		resumed = true
	}
	if resumed {
		b.notifyLocked()
	}
}

// notifyLocked wakes every waiter by closing the current notify channel and
// swapping in a fresh one.
func (b *Broadcaster[T]) notifyLocked() {
	closed := b.notify
	b.notify = make(chan struct{})
	close(closed)
}

func (b *Broadcaster[T]) publishCountLocked() {
	if b.counter != nil {
		b.counter.Set(len(b.subs))
	}
}
