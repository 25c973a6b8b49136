// Package broadcast provides hot, multi-subscriber emission primitives: a
// replay-buffered broadcaster and its latest-value specialization. One
// producer emits values; any number of subscribers receive them in emission
// order, each at its own pace, without re-running the producer per
// subscriber.
//
// # Core Types
//
// Broadcaster is the general primitive. It retains the last `replay` values
// for late subscribers, absorbs bursts in extra buffer slots, and applies an
// overflow policy when the slowest subscriber falls too far behind:
//
//	b, err := broadcast.New[Event](
//	    broadcast.WithReplay(8),
//	    broadcast.WithBufferCapacity(64),
//	    broadcast.WithOverflow(stream.Suspend),
//	)
//
// State is a Broadcaster configured for "latest value" semantics: replay of
// exactly one value, conflation instead of backpressure, and suppression of
// consecutive equal values. It always holds a value and supports a
// non-blocking read:
//
//	st := broadcast.NewState(Status{Phase: "idle"})
//	st.Set(Status{Phase: "running"})
//	current := st.Value()
//
// # Subscribing
//
// Subscribe returns a Subscription whose Next call delivers values in
// emission order and suspends while the subscriber is caught up:
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	for {
//	    v, err := sub.Next(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    handle(v)
//	}
//
// Each subscriber owns an independent cursor: a slow subscriber does not
// delay a fast one, only the emitter (under the Suspend policy). Closing a
// subscription never affects other subscribers or the emitter.
//
// # Overflow Policies
//
// The policy applies when emitted-but-undelivered values would exceed
// replay+capacity slots:
//
//   - stream.Suspend: Emit blocks until the slowest subscriber frees a slot.
//     Blocked emitters resume in arrival order and hold no lock while
//     waiting, so subscribers keep draining.
//   - stream.DropOldest: the oldest buffered value is evicted. A subscriber
//     that had not consumed it yet silently skips forward; this is by
//     contract NOT reported to the subscriber. Code that must not miss
//     values needs the Suspend policy instead.
//   - stream.DropLatest: the incoming value is silently discarded.
//
// Values emitted while no subscriber exists are buffered, so the first
// subscriber replays the retained backlog.
//
// # Subscriber Count Signal
//
// SubscriberCount exposes the number of live subscribers as a read-only
// State[int]. The count is published atomically with the subscribe or
// unsubscribe that changed it, which makes it a reliable trigger for the
// sharing package's start/stop strategies:
//
//	counts := b.SubscriberCount()
//	sub := counts.Subscribe(ctx)
//	n, err := sub.Next(ctx) // replays the current count immediately
//
// # Read-Only Views
//
// Readonly and ReadonlyState wrap the mutable types and expose only the
// consuming operations. Hand them to subscribers; keep the mutable value on
// the producing side.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The buffer state is protected
// by a single mutex that is never held across a suspension point: a blocked
// emitter and a caught-up subscriber both wait on signal channels outside
// the critical section.
package broadcast
