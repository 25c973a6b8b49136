package broadcast

import (
	"context"

	"github.com/dmitrymomot/flowkit/core/stream"
)

// Readonly is a capability-restricted view of a Broadcaster. It exposes only
// the consuming side: subscribing, the subscriber-count signal, and the
// stream adapter. Holding a Readonly grants no way to emit or reset.
type Readonly[T any] struct {
	b *Broadcaster[T]
}

// Subscribe registers a new subscriber. See Broadcaster.Subscribe.
func (r *Readonly[T]) Subscribe(ctx context.Context) *Subscription[T] {
	return r.b.Subscribe(ctx)
}

// SubscriberCount exposes the live subscriber count.
func (r *Readonly[T]) SubscriberCount() *ReadonlyState[int] {
	return r.b.SubscriberCount()
}

// Stream adapts the broadcast to a hot stream.Stream.
func (r *Readonly[T]) Stream() stream.Stream[T] {
	return r.b.Stream()
}

// ReadonlyState is a capability-restricted view of a State exposing only the
// non-mutating operations.
type ReadonlyState[T any] struct {
	st *State[T]
}

// Value returns the current value without blocking.
func (r *ReadonlyState[T]) Value() T {
	return r.st.Value()
}

// Subscribe registers a subscriber that immediately replays the current
// value and then receives every distinct update.
func (r *ReadonlyState[T]) Subscribe(ctx context.Context) *Subscription[T] {
	return r.st.Subscribe(ctx)
}

// SubscriberCount exposes the live subscriber count of the state.
func (r *ReadonlyState[T]) SubscriberCount() *ReadonlyState[int] {
	return r.st.SubscriberCount()
}

// Stream adapts the state to a hot stream of distinct values.
func (r *ReadonlyState[T]) Stream() stream.Stream[T] {
	return r.st.Stream()
}
