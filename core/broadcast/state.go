package broadcast

import (
	"context"
	"reflect"
	"sync"

	"github.com/dmitrymomot/flowkit/core/stream"
)

// State is the latest-value specialization of Broadcaster: replay of exactly
// one value, conflating overflow, and equality-based suppression of
// consecutive duplicates. A state always holds a value; there is no empty
// state.
//
// Example:
//
//	st := broadcast.NewState("disconnected")
//
//	sub := st.Subscribe(ctx)       // immediately replays "disconnected"
//	st.Set("connected")            // notifies subscribers
//	st.Set("connected")            // no-op, equal to current value
//	current := st.Value()
type State[T any] struct {
	b *Broadcaster[T]

	mu    sync.RWMutex
	value T
	equal func(a, b T) bool
}

// StateOption configures a State.
type StateOption[T any] func(*State[T])

// WithEqual overrides the equality function used to suppress duplicate
// values. The default is reflect.DeepEqual.
func WithEqual[T any](equal func(a, b T) bool) StateOption[T] {
	return func(st *State[T]) {
		if equal != nil {
			st.equal = equal
		}
	}
}

// NewState creates a latest-value broadcast seeded with an initial value.
func NewState[T any](initial T, opts ...StateOption[T]) *State[T] {
	cfg := defaultConfig()
	cfg.replay = 1
	cfg.policy = stream.DropOldest

	st := &State[T]{
		b:     newBroadcaster[T](cfg),
		value: initial,
		equal: func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
	for _, opt := range opts {
		opt(st)
	}
	st.b.TryEmit(initial)
	return st
}

// newCounterState backs SubscriberCount signals. Its own broadcaster does
// not track a counter, which breaks the otherwise infinite regress.
func newCounterState() *State[int] {
	cfg := defaultConfig()
	cfg.replay = 1
	cfg.policy = stream.DropOldest
	cfg.counted = false

	st := &State[int]{
		b:     newBroadcaster[int](cfg),
		equal: func(a, b int) bool { return a == b },
	}
	st.b.TryEmit(0)
	return st
}

// Value returns the current value without blocking.
func (st *State[T]) Value() T {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.value
}

// Set publishes a new value and reports whether it was accepted. A value
// equal to the current one is suppressed: the buffer is untouched and
// subscribers are not notified. Set never blocks; conflation drops the
// previous value for subscribers that have not consumed it yet.
func (st *State[T]) Set(v T) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.equal(st.value, v) {
		return false
	}
	st.value = v
	st.b.TryEmit(v)
	return true
}

// Reset re-seeds the state to the given value, advancing the index baseline
// of the underlying buffer. Unlike Set, the value is published even when it
// equals the current one.
func (st *State[T]) Reset(v T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.value = v
	st.b.Reset()
	st.b.TryEmit(v)
}

// Subscribe registers a subscriber that immediately replays the current
// value and then receives every distinct update.
func (st *State[T]) Subscribe(ctx context.Context) *Subscription[T] {
	return st.b.Subscribe(ctx)
}

// SubscriberCount exposes the live subscriber count of this state.
func (st *State[T]) SubscriberCount() *ReadonlyState[int] {
	return st.b.SubscriberCount()
}

// Readonly returns a capability-restricted view exposing only the
// non-mutating operations.
func (st *State[T]) Readonly() *ReadonlyState[T] {
	return &ReadonlyState[T]{st: st}
}

// Stream adapts the state to a hot stream of distinct values, starting with
// the current one.
func (st *State[T]) Stream() stream.Stream[T] {
	return st.b.Stream()
}
