package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversEvents(t *testing.T) {
	var mu sync.Mutex
	var got []Event
	d := NewDispatcher(EmitterFunc(func(ctx context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, event)
		return nil
	}), Options{BufferSize: 8, Workers: 1})
	d.Start()

	d.Dispatch(Event{RealtorID: 1, Kind: "withdrawal_requested"})
	d.Dispatch(Event{RealtorID: 2, Kind: "withdrawal_approved"})
	require.NoError(t, d.Stop(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].RealtorID)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestDispatcherRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	d := NewDispatcher(EmitterFunc(func(ctx context.Context, event Event) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}), Options{MaxAttempts: 3, BaseBackoff: time.Millisecond})
	d.Start()
	d.Dispatch(Event{RealtorID: 1, Kind: "withdrawal_requested"})
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestDispatcherSwallowsFinalFailureAndPanics(t *testing.T) {
	var attempts int32
	d := NewDispatcher(EmitterFunc(func(ctx context.Context, event Event) error {
		if atomic.AddInt32(&attempts, 1)%2 == 0 {
			panic("emitter panic")
		}
		return errors.New("permanent")
	}), Options{MaxAttempts: 3, BaseBackoff: time.Millisecond})
	d.Start()
	d.Dispatch(Event{RealtorID: 1, Kind: "withdrawal_rejected"})
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestDispatcherDropsWhenBufferFull(t *testing.T) {
	block := make(chan struct{})
	var delivered int32
	d := NewDispatcher(EmitterFunc(func(ctx context.Context, event Event) error {
		<-block
		atomic.AddInt32(&delivered, 1)
		return nil
	}), Options{BufferSize: 1, Workers: 1})
	d.Start()

	d.Dispatch(Event{RealtorID: 1})
	// 等待 worker 取走第一条，缓冲区重新可用
	require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, time.Millisecond)

	returned := make(chan struct{})
	go func() {
		d.Dispatch(Event{RealtorID: 2})
		d.Dispatch(Event{RealtorID: 3})
		d.Dispatch(Event{RealtorID: 4})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("dispatch must never block the caller")
	}
	assert.Equal(t, 1, d.Pending())

	close(block)
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&delivered))
}

func TestDispatcherStopHonoursDrainDeadline(t *testing.T) {
	d := NewDispatcher(EmitterFunc(func(ctx context.Context, event Event) error {
		<-ctx.Done()
		return ctx.Err()
	}), Options{
		Workers:        1,
		MaxAttempts:    1,
		AttemptTimeout: time.Minute,
		DrainTimeout:   20 * time.Millisecond,
	})
	d.Start()
	d.Dispatch(Event{RealtorID: 1})
	require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, time.Millisecond)

	start := time.Now()
	err := d.Stop(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	// 停止后的事件直接丢弃
	d.Dispatch(Event{RealtorID: 2})
	assert.Equal(t, 0, d.Pending())
}

func TestExponentialBackoffAndJitter(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, base, exponentialBackoff(base, 0))
	assert.Equal(t, 4*base, exponentialBackoff(base, 2))
	assert.Equal(t, time.Duration(0), exponentialBackoff(0, 3))
	assert.Equal(t, exponentialBackoff(base, maxBackoffShift), exponentialBackoff(base, maxBackoffShift+10))

	for i := 0; i < 50; i++ {
		wait := fullJitter(base)
		assert.GreaterOrEqual(t, wait, time.Duration(0))
		assert.Less(t, wait, base)
	}
	assert.Equal(t, time.Duration(0), fullJitter(0))
}
