package stream

import "context"

// FromSlice returns a stream that yields the given values in order and
// completes. The slice is not copied; callers must not mutate it while the
// stream is being collected.
func FromSlice[T any](values ...T) Stream[T] {
	return Func[T](func(ctx context.Context, sink Sink[T]) error {
		for _, v := range values {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// FromChannel returns a stream that yields values received from ch until the
// channel is closed or the context is cancelled. The stream completes when
// the channel closes.
//
// The resulting stream is only cold in the sense that receiving does not
// begin until Collect is called; values sent while nobody collects are the
// channel's concern, not the stream's.
func FromChannel[T any](ch <-chan T) Stream[T] {
	return Func[T](func(ctx context.Context, sink Sink[T]) error {
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
}

// Generate returns a stream that repeatedly calls next to produce values.
// The stream completes when next returns false and fails when next returns
// an error.
func Generate[T any](next func(ctx context.Context) (T, bool, error)) Stream[T] {
	return Func[T](func(ctx context.Context, sink Sink[T]) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, ok, err := next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := sink(ctx, v); err != nil {
				return err
			}
		}
	})
}
