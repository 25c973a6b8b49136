package sharing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flowkit/core/broadcast"
	"github.com/dmitrymomot/flowkit/core/sharing"
	"github.com/dmitrymomot/flowkit/core/stream"
)

// next reads one value with a deadline so a broken session fails the test
// instead of hanging it.
func next[T any](t *testing.T, sub *broadcast.Subscription[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := sub.Next(ctx)
	require.NoError(t, err)
	return v
}

func expectIdle[T any](t *testing.T, sub *broadcast.Subscription[T]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := sub.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShareValidation(t *testing.T) {
	t.Parallel()

	t.Run("nil upstream", func(t *testing.T) {
		t.Parallel()

		_, err := sharing.Share[int](context.Background(), nil)
		assert.ErrorIs(t, err, sharing.ErrNilUpstream)
	})

	t.Run("nil strategy", func(t *testing.T) {
		t.Parallel()

		_, err := sharing.Share(context.Background(), stream.FromSlice(1),
			sharing.WithStrategy(nil))
		assert.ErrorIs(t, err, sharing.ErrNilStrategy)
	})

	t.Run("invalid broadcast configuration", func(t *testing.T) {
		t.Parallel()

		_, err := sharing.Share(context.Background(), stream.FromSlice(1),
			sharing.WithReplay(-1))
		assert.ErrorIs(t, err, broadcast.ErrNegativeReplay)
	})
}

func TestShareSingleProducer(t *testing.T) {
	t.Parallel()

	// One upstream collection serves every subscriber.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	collections := 0
	upstream := stream.Func[int](func(ctx context.Context, sink stream.Sink[int]) error {
		mu.Lock()
		collections++
		mu.Unlock()
		for i := 1; i <= 3; i++ {
			if err := sink(ctx, i); err != nil {
				return err
			}
		}
		<-ctx.Done()
		return ctx.Err()
	})

	shared, err := sharing.Share(ctx, upstream, sharing.WithReplay(3))
	require.NoError(t, err)

	subA := shared.Subscribe(ctx)
	defer subA.Close()
	subB := shared.Subscribe(ctx)
	defer subB.Close()

	for i := 1; i <= 3; i++ {
		assert.Equal(t, i, next(t, subA))
	}
	for i := 1; i <= 3; i++ {
		assert.Equal(t, i, next(t, subB))
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, collections)
}

func TestShareFusesBufferedWrapper(t *testing.T) {
	t.Parallel()

	// A directly-chained Buffered wrapper contributes its capacity and policy
	// to the broadcast buffer. With DropOldest and capacity 2, only the last
	// two of five burst values survive for the first subscriber; the unfused
	// default (Suspend, capacity 64) would have kept all five.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitted := make(chan struct{})
	inner := stream.Func[int](func(ctx context.Context, sink stream.Sink[int]) error {
		for i := 1; i <= 5; i++ {
			if err := sink(ctx, i); err != nil {
				return err
			}
		}
		close(emitted)
		<-ctx.Done()
		return ctx.Err()
	})

	buffered, err := stream.Buffered(inner, 2, stream.DropOldest)
	require.NoError(t, err)

	shared, err := sharing.Share(ctx, buffered)
	require.NoError(t, err)

	select {
	case <-emitted:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream burst did not complete")
	}

	sub := shared.Subscribe(ctx)
	defer sub.Close()

	assert.Equal(t, 4, next(t, sub))
	assert.Equal(t, 5, next(t, sub))
	expectIdle(t, sub)
}

func TestShareOptionsOverrideFusedConfiguration(t *testing.T) {
	t.Parallel()

	// Explicit options win over the fused wrapper: capacity 8 with Suspend
	// keeps the whole burst.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitted := make(chan struct{})
	inner := stream.Func[int](func(ctx context.Context, sink stream.Sink[int]) error {
		for i := 1; i <= 5; i++ {
			if err := sink(ctx, i); err != nil {
				return err
			}
		}
		close(emitted)
		<-ctx.Done()
		return ctx.Err()
	})

	buffered, err := stream.Buffered(inner, 1, stream.DropOldest)
	require.NoError(t, err)

	shared, err := sharing.Share(ctx, buffered,
		sharing.WithBufferCapacity(8),
		sharing.WithOverflow(stream.Suspend),
	)
	require.NoError(t, err)

	select {
	case <-emitted:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream burst did not complete")
	}

	sub := shared.Subscribe(ctx)
	defer sub.Close()

	for i := 1; i <= 5; i++ {
		assert.Equal(t, i, next(t, sub))
	}
}

func TestShareErrorHandler(t *testing.T) {
	t.Parallel()

	upstreamErr := errors.New("upstream exploded")
	upstream := stream.Func[int](func(_ context.Context, _ stream.Sink[int]) error {
		return upstreamErr
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan error, 1)
	_, err := sharing.Share(ctx, upstream,
		sharing.WithErrorHandler(func(err error) { got <- err }),
	)
	require.NoError(t, err)

	select {
	case err := <-got:
		assert.ErrorIs(t, err, upstreamErr)
	case <-time.After(5 * time.Second):
		t.Fatal("error handler was not invoked")
	}
}

func TestShareScopeEndResetsBuffer(t *testing.T) {
	t.Parallel()

	probe := &producerProbe{}
	upstream := stream.Func[int](func(ctx context.Context, sink stream.Sink[int]) error {
		if err := sink(ctx, 1); err != nil {
			return err
		}
		return probe.stream().Collect(ctx, sink)
	})

	ctx, cancel := context.WithCancel(context.Background())
	shared, err := sharing.Share(ctx, upstream, sharing.WithReplay(1))
	require.NoError(t, err)

	sub := shared.Subscribe(context.Background())
	assert.Equal(t, 1, next(t, sub))
	require.NoError(t, sub.Close())

	cancel()
	require.Eventually(t, func() bool {
		_, stops := probe.counts()
		return stops == 1
	}, 5*time.Second, 10*time.Millisecond)

	// The replay buffer was reset on scope end: a new subscriber sees
	// nothing. The reset runs right after the producer acknowledges the
	// cancellation, so give the session a moment to finish its cleanup.
	time.Sleep(200 * time.Millisecond)
	late := shared.Subscribe(context.Background())
	defer late.Close()
	expectIdle(t, late)
}

func TestWhileSubscribedReplayExpiration(t *testing.T) {
	t.Parallel()

	// Each producer run emits the next value in the sequence, so whether a
	// returning subscriber sees the previous run's value tells us whether the
	// replay buffer survived the stop.
	newUpstream := func() stream.Stream[int] {
		var mu sync.Mutex
		runs := 0
		return stream.Func[int](func(ctx context.Context, sink stream.Sink[int]) error {
			mu.Lock()
			runs++
			v := runs
			mu.Unlock()
			if err := sink(ctx, v); err != nil {
				return err
			}
			<-ctx.Done()
			return ctx.Err()
		})
	}

	t.Run("zero expiration resets on stop", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ws, err := sharing.NewWhileSubscribed(50*time.Millisecond,
			sharing.WithReplayExpiration(0))
		require.NoError(t, err)

		shared, err := sharing.Share(ctx, newUpstream(),
			sharing.WithReplay(1),
			sharing.WithStrategy(ws),
		)
		require.NoError(t, err)

		sub := shared.Subscribe(ctx)
		assert.Equal(t, 1, next(t, sub))
		require.NoError(t, sub.Close())

		// Wait out the stop timeout, then come back: the buffer was reset,
		// so the only value seen is the new run's.
		time.Sleep(300 * time.Millisecond)
		sub2 := shared.Subscribe(ctx)
		defer sub2.Close()
		assert.Equal(t, 2, next(t, sub2))
	})

	t.Run("finite expiration keeps replay until it elapses", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ws, err := sharing.NewWhileSubscribed(100*time.Millisecond,
			sharing.WithReplayExpiration(time.Second))
		require.NoError(t, err)

		shared, err := sharing.Share(ctx, newUpstream(),
			sharing.WithReplay(1),
			sharing.WithStrategy(ws),
		)
		require.NoError(t, err)

		sub := shared.Subscribe(ctx)
		assert.Equal(t, 1, next(t, sub))
		require.NoError(t, sub.Close())

		// Return after the stop timeout but well before the expiration: the
		// producer stopped, yet the buffered value survived, so the previous
		// run's value replays before the new run's arrives. The returning
		// subscriber also supersedes the pending expiration, so no reset
		// happens afterwards.
		time.Sleep(400 * time.Millisecond)
		sub2 := shared.Subscribe(ctx)
		defer sub2.Close()
		assert.Equal(t, 1, next(t, sub2))
		assert.Equal(t, 2, next(t, sub2))
	})

	t.Run("finite expiration resets once it elapses", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ws, err := sharing.NewWhileSubscribed(100*time.Millisecond,
			sharing.WithReplayExpiration(500*time.Millisecond))
		require.NoError(t, err)

		shared, err := sharing.Share(ctx, newUpstream(),
			sharing.WithReplay(1),
			sharing.WithStrategy(ws),
		)
		require.NoError(t, err)

		sub := shared.Subscribe(ctx)
		assert.Equal(t, 1, next(t, sub))
		require.NoError(t, sub.Close())

		// Wait out both the stop timeout and the expiration: the buffer was
		// reset, so the only value seen on return is the new run's.
		time.Sleep(1500 * time.Millisecond)
		sub2 := shared.Subscribe(ctx)
		defer sub2.Close()
		assert.Equal(t, 2, next(t, sub2))
		expectIdle(t, sub2)
	})

	t.Run("default keeps replay forever", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ws, err := sharing.NewWhileSubscribed(50 * time.Millisecond)
		require.NoError(t, err)

		shared, err := sharing.Share(ctx, newUpstream(),
			sharing.WithReplay(1),
			sharing.WithStrategy(ws),
		)
		require.NoError(t, err)

		sub := shared.Subscribe(ctx)
		assert.Equal(t, 1, next(t, sub))
		require.NoError(t, sub.Close())

		// The producer stops but the buffered value survives: a returning
		// subscriber replays it before the new run's value arrives.
		time.Sleep(300 * time.Millisecond)
		sub2 := shared.Subscribe(ctx)
		defer sub2.Close()
		assert.Equal(t, 1, next(t, sub2))
		assert.Equal(t, 2, next(t, sub2))
	})
}

func TestStateIn(t *testing.T) {
	t.Parallel()

	t.Run("nil upstream", func(t *testing.T) {
		t.Parallel()

		_, err := sharing.StateIn[int](context.Background(), nil, 0)
		assert.ErrorIs(t, err, sharing.ErrNilUpstream)
	})

	t.Run("tracks the latest value", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := make(chan int)
		st, err := sharing.StateIn(ctx, stream.FromChannel(ch), 0)
		require.NoError(t, err)
		assert.Equal(t, 0, st.Value())

		ch <- 5
		require.Eventually(t, func() bool {
			return st.Value() == 5
		}, 5*time.Second, 10*time.Millisecond)

		ch <- 7
		require.Eventually(t, func() bool {
			return st.Value() == 7
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("scope end re-seeds the initial value", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		ch := make(chan int)
		st, err := sharing.StateIn(ctx, stream.FromChannel(ch), -1)
		require.NoError(t, err)

		ch <- 9
		require.Eventually(t, func() bool {
			return st.Value() == 9
		}, 5*time.Second, 10*time.Millisecond)

		cancel()
		require.Eventually(t, func() bool {
			return st.Value() == -1
		}, 5*time.Second, 10*time.Millisecond)
	})
}

func TestStateInWait(t *testing.T) {
	t.Parallel()

	t.Run("returns once the first value arrives", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := make(chan int, 1)
		ch <- 7

		st, err := sharing.StateInWait(ctx, stream.FromChannel(ch))
		require.NoError(t, err)
		assert.Equal(t, 7, st.Value())

		ch <- 8
		require.Eventually(t, func() bool {
			return st.Value() == 8
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("cancelled scope aborts the wait", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ch := make(chan int)
		_, err := sharing.StateInWait(ctx, stream.FromChannel(ch))
		assert.Error(t, err)
	})
}
