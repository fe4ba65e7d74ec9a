package membus

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_BasicPubSub(t *testing.T) {
	bus := New(logging.EnsureLogger(context.Background()))

	var mu sync.Mutex
	var called bool
	bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
		assert.Equal(t, "hello", msg.Data)
		mu.Lock()
		defer mu.Unlock()
		called = true
		return nil
	})

	bus.Publish("topic", "hello")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return called
	},
		time.Second*2,
		time.Millisecond,
		"subscriber should have been called")
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := New(logging.EnsureLogger(context.Background()))

	var called []int
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		i := i
		bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "hello", msg.Data)
			called = append(called, i)
			return nil
		})
	}

	bus.Publish("topic", "hello")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(called) == 10
	},
		time.Second*2,
		time.Millisecond,
		"subscribers should have been called")

	mu.Lock()
	defer mu.Unlock()
	slices.Sort(called) // Execution order isn't guaranteed.
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, called)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	bus := New(ctx)

	// Messages to topics without subscribers are dropped.
	bus.Publish("topic", "hello")
	bus.Enqueue("queue", "hello")

	require.NoError(t, bus.Wait(ctx))
}

func TestBus_QueueRoundRobin(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	bus := New(ctx)

	var mu sync.Mutex
	counts := make(map[int]int)
	for i := 0; i < 2; i++ {
		i := i
		bus.SubscribeQueue("queue", func(ctx context.Context, msg *eventbus.Message) error {
			mu.Lock()
			counts[i]++
			mu.Unlock()
			return nil
		})
	}

	for _i := 0; _i < 10; _i++ {
		bus.Enqueue("queue", "job")
	}
	require.NoError(t, bus.Wait(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, counts[0], "queue messages should alternate between subscribers")
	assert.Equal(t, 5, counts[1], "queue messages should alternate between subscribers")
}

func TestBus_Wait(t *testing.T) {
	bus := New(logging.EnsureLogger(context.Background()))

	var called bool
	bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
		assert.Equal(t, "hello", msg.Data)
		time.Sleep(time.Millisecond * 50)
		called = true
		return nil
	})

	bus.Publish("topic", "hello")

	require.NoError(t, bus.Wait(logging.EnsureLogger(context.Background())))
	assert.True(t, called, "subscriber should have been called")
}

func TestBus_WaitTimeout(t *testing.T) {
	bus := New(logging.EnsureLogger(context.Background()))

	var called bool
	bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
		assert.Equal(t, "hello", msg.Data)
		time.Sleep(time.Millisecond * 50)
		called = true
		return nil
	})

	bus.Publish("topic", "hello")

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	require.Error(t, bus.Wait(ctx))
	assert.False(t, called, "subscriber should not have been called yet")
}

func TestBus_SubscriberError(t *testing.T) {
	ctx := logging.With(context.Background(), logging.NewDevLogger())
	bus := New(ctx)

	bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
		return errors.New("subscriber error")
	})

	bus.Publish("topic", "hello")
	assert.NoError(t, bus.Wait(ctx))

	// TODO: Check for error in logs.
}

func TestBus_SubscriberPanic(t *testing.T) {
	ctx := logging.With(context.Background(), logging.NewDevLogger())
	bus := New(ctx)

	bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
		panic("subscriber panic")
	})

	bus.Publish("topic", "hello")
	assert.NoError(t, bus.Wait(ctx))

	// TODO: Check for error in logs.
}

func TestBus_WorkerPoolConcurrency(t *testing.T) {
	bus := New(logging.EnsureLogger(context.Background()))

	var mu sync.Mutex
	var concurrent int
	var maxConcurrent int

	for _i := 0; _i < 200; _i++ {
		bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
			mu.Lock()
			concurrent++
			if concurrent > maxConcurrent {
				maxConcurrent = concurrent
			}
			mu.Unlock()

			time.Sleep(time.Millisecond) // Simulate work

			mu.Lock()
			concurrent--
			mu.Unlock()
			return nil
		})
	}

	bus.Publish("topic", "hello")
	require.NoError(t, bus.Wait(logging.EnsureLogger(context.Background())))

	// With 200 subscribers and 100 workers, max concurrent should be ~100
	t.Logf("Max concurrent subscribers: %d", maxConcurrent)
	assert.LessOrEqual(t, maxConcurrent, 100, "should not exceed worker pool size")
}

func TestBus_WorkerPoolLimit(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	bus := New(ctx, WithWorkerPool(10))

	var called int
	var mu sync.Mutex

	for _i := 0; _i < 100; _i++ {
		bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
			mu.Lock()
			called++
			mu.Unlock()
			time.Sleep(time.Millisecond * 10)
			return nil
		})
	}

	bus.Publish("topic", "hello")

	require.NoError(t, bus.Wait(ctx))

	assert.Equal(t, 100, called, "all subscribers should be processed by worker pool")
}

func TestBus_HighLoad(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	bus := New(ctx, WithWorkerPool(50))

	var processed sync.WaitGroup
	processed.Add(1000)

	for _i := 0; _i < 1000; _i++ {
		bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
			processed.Done()
			return nil
		})
	}

	bus.Publish("topic", "hello")

	done := make(chan struct{})
	go func() {
		processed.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Success
	case <-time.After(time.Second * 5):
		t.Fatal("timeout waiting for high load processing")
	}

	assert.NoError(t, bus.Wait(ctx))
}

func TestBus_GracefulShutdown(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	bus := New(ctx, WithWorkerPool(10)).(*Bus)

	var completed int
	var mu sync.Mutex

	for _i := 0; _i < 50; _i++ {
		bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
			time.Sleep(time.Millisecond * 10)
			mu.Lock()
			completed++
			mu.Unlock()
			return nil
		})
	}

	bus.Publish("topic", "hello")

	// Give workers time to start processing
	time.Sleep(time.Millisecond * 5)

	// Shutdown should wait for all jobs to complete
	require.NoError(t, bus.Shutdown(ctx))

	mu.Lock()
	final := completed
	mu.Unlock()

	assert.Equal(t, 50, final, "all subscribers should complete")
}

func TestBus_UnboundedMode(t *testing.T) {
	// workers=0 runs each handler on its own goroutine.
	ctx := logging.EnsureLogger(context.Background())
	bus := New(ctx, WithWorkerPool(0))

	var called int
	var mu sync.Mutex

	for _i := 0; _i < 10; _i++ {
		bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
			mu.Lock()
			called++
			mu.Unlock()
			return nil
		})
	}

	bus.Publish("topic", "hello")
	require.NoError(t, bus.Wait(ctx))

	assert.Equal(t, 10, called)
}

func TestBus_CustomWorkerPoolSize(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	bus := New(ctx, WithWorkerPool(5))

	var called int
	var mu sync.Mutex

	for _i := 0; _i < 20; _i++ {
		bus.Subscribe("topic", func(ctx context.Context, msg *eventbus.Message) error {
			mu.Lock()
			called++
			mu.Unlock()
			return nil
		})
	}

	bus.Publish("topic", "hello")
	require.NoError(t, bus.Wait(ctx))

	assert.Equal(t, 20, called, "all subscribers should be called")
}

func TestBus_MessageMetadata(t *testing.T) {
	bus := New(logging.EnsureLogger(context.Background()))

	var msg *eventbus.Message
	bus.Subscribe("topic", func(ctx context.Context, m *eventbus.Message) error {
		msg = m
		return nil
	})

	bus.Publish("topic", "hello")

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()
	require.NoError(t, bus.Wait(ctx))

	require.NotNil(t, msg)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "topic", msg.Topic)
	assert.Equal(t, "hello", msg.Data)
	assert.Equal(t, 1, msg.Attempt)
}
