// Package stream provides a minimal cold-sequence abstraction used as the
// input side of the broadcast and sharing packages.
//
// A Stream is a producible computation: every Collect call runs the producer
// from the beginning and delivers each value to the supplied sink. Nothing
// runs until Collect is called and nothing is shared between Collect calls.
// Hot, shared consumption of a single producer run is the job of the sharing
// package.
//
// # Basic Usage
//
// Build a stream from a function, a slice, or a channel:
//
//	numbers := stream.FromSlice(1, 2, 3)
//
//	ticks := stream.Func[time.Time](func(ctx context.Context, sink stream.Sink[time.Time]) error {
//	    t := time.NewTicker(time.Second)
//	    defer t.Stop()
//	    for {
//	        select {
//	        case <-ctx.Done():
//	            return ctx.Err()
//	        case now := <-t.C:
//	            if err := sink(ctx, now); err != nil {
//	                return err
//	            }
//	        }
//	    }
//	})
//
//	err := numbers.Collect(ctx, func(ctx context.Context, v int) error {
//	    fmt.Println(v)
//	    return nil
//	})
//
// # Buffering
//
// Buffered inserts a bounded stage between producer and consumer with a
// configurable overflow policy:
//
//	buffered, err := stream.Buffered(ticks, 16, stream.DropOldest)
//
// When a buffered stream is handed directly to sharing.Share, the stage is
// fused into the broadcast buffer instead of running separately.
//
// # Termination
//
// Collect returns nil on normal completion, the producer's error on failure,
// and the context error on cancellation. Sinks stop collection by returning
// an error; that error is propagated unchanged.
package stream
