package stream

import "context"

// Sink receives a single value produced by a stream. Returning an error stops
// collection and propagates the error to the Collect caller.
type Sink[T any] func(ctx context.Context, v T) error

// Stream is a cold, producible sequence of values. Each call to Collect runs
// the producer from scratch and delivers every value to the sink in order.
// Collect returns nil when the producer completes, the producer's error when
// it fails, or the context error when collection is cancelled.
//
// Streams are cold by default: two concurrent Collect calls run two
// independent producers. Use the sharing package to turn a cold stream into
// a hot broadcast shared by many subscribers.
type Stream[T any] interface {
	Collect(ctx context.Context, sink Sink[T]) error
}

// Func adapts a plain function to the Stream interface.
//
// Example:
//
//	ticker := stream.Func[int](func(ctx context.Context, sink stream.Sink[int]) error {
//	    for i := 0; ; i++ {
//	        if err := sink(ctx, i); err != nil {
//	            return err
//	        }
//	    }
//	})
type Func[T any] func(ctx context.Context, sink Sink[T]) error

// Collect implements the Stream interface.
func (f Func[T]) Collect(ctx context.Context, sink Sink[T]) error {
	return f(ctx, sink)
}
