package async_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prysmaticlabs/epoch-engine/async"
)

func TestEveryRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	i := int32(0)
	async.RunEvery(ctx, 100*time.Millisecond, func() {
		atomic.AddInt32(&i, 1)
	})

	// Sleep for a bit and ensure the value has increased.
	time.Sleep(200 * time.Millisecond)

	if atomic.LoadInt32(&i) == 0 {
		t.Error("Counter failed to increment with ticker")
	}

	cancel()

	// Sleep for a bit to let the cancel take place.
	time.Sleep(100 * time.Millisecond)

	last := atomic.LoadInt32(&i)

	// Sleep for a bit and ensure the value has not increased.
	time.Sleep(200 * time.Millisecond)

	if atomic.LoadInt32(&i) != last {
		t.Error("Counter incremented after stop")
	}
}

func TestEveryAfter_WaitsForDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	i := int32(0)
	async.RunEveryAfter(ctx, 300*time.Millisecond, 50*time.Millisecond, func() {
		atomic.AddInt32(&i, 1)
	})

	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&i) != 0 {
		t.Error("Command ran before the initial delay")
	}

	time.Sleep(400 * time.Millisecond)
	if atomic.LoadInt32(&i) < 2 {
		t.Errorf("Expected the command to keep running after the delay, ran %d times", atomic.LoadInt32(&i))
	}
}

func TestEveryAfter_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	i := int32(0)
	async.RunEveryAfter(ctx, 200*time.Millisecond, 10*time.Millisecond, func() {
		atomic.AddInt32(&i, 1)
	})
	cancel()

	time.Sleep(300 * time.Millisecond)
	if atomic.LoadInt32(&i) != 0 {
		t.Error("Command ran after the context was canceled")
	}
}

func TestEveryAfter_ZeroDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 1)
	async.RunEveryAfter(ctx, 0, time.Hour, func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("Command did not run right away")
	}
}
