// Package sharing converts a cold, single-run stream into a hot broadcast
// shared by an arbitrary number of subscribers, running at most one producer
// task per session and starting or stopping it in response to subscriber
// presence.
//
// # Entry Points
//
// Share wires a cold stream, a scope context, and a strategy into a running
// read-only broadcast:
//
//	events, err := sharing.Share(ctx, upstream,
//	    sharing.WithReplay(1),
//	    sharing.WithStrategy(sharing.Lazily),
//	)
//	if err != nil {
//	    return err
//	}
//
//	sub := events.Subscribe(ctx)
//	defer sub.Close()
//
// StateIn does the same for latest-value semantics, seeded with an explicit
// initial value:
//
//	status, err := sharing.StateIn(ctx, upstream, Status{Phase: "connecting"})
//
// StateInWait starts the producer eagerly and blocks the caller until the
// first value arrives, which then seeds the returned view.
//
// # Strategies
//
// A Strategy maps the live subscriber-count signal to producer lifecycle
// commands:
//
//   - Eagerly (default): start immediately, never stop.
//   - Lazily: start on the first subscriber, never stop.
//   - WhileSubscribed: start on the first subscriber, stop stopTimeout after
//     the last one leaves, optionally reset the replay buffer after a
//     further replayExpiration. Subscribers arriving during a pending wait
//     cancel it and restart the producer.
//
//	ws, err := sharing.NewWhileSubscribed(5*time.Second,
//	    sharing.WithReplayExpiration(time.Minute),
//	)
//
// # Session Lifecycle
//
// The coordinator consumes the strategy's commands with latest-wins
// semantics: a new command cancels the in-flight producer before being
// handled. Exactly one producer runs at any time. When the scope context
// ends, the producer is cancelled and the buffer is reset as a final cleanup
// step; subscriptions stay governed by their own Subscribe context.
//
// Upstream completion leaves the broadcast subscribable but idle. Upstream
// failure additionally invokes the WithErrorHandler callback; the session is
// not retried.
//
// # Buffer Fusion
//
// A stream.Buffered wrapper chained directly onto the upstream is detected
// and fused: its capacity and overflow policy configure the broadcast's
// extra buffer and no separate buffering stage runs. Without a wrapper the
// broadcast uses DefaultBufferCapacity extra slots and the Suspend policy.
//
// # Configuration
//
// Config carries env-mapped settings (SHARING_*) for buffer sizing and the
// WhileSubscribed timings, loadable through the config package:
//
//	var cfg sharing.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	ws, err := sharing.NewWhileSubscribedFromConfig(cfg)
package sharing
