package watchers

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDisplaysCoalescesBursts(t *testing.T) {
	stop := make(chan struct{})
	events := make(chan struct{})
	var calls atomic.Int32
	done := make(chan struct{})

	go func() {
		watchDisplays(stop, events, 30*time.Millisecond, func() { calls.Add(1) })
		close(done)
	}()

	for i := 0; i < 5; i++ {
		events <- struct{}{}
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	events <- struct{}{}
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchDisplaysQuietWithoutEvents(t *testing.T) {
	stop := make(chan struct{})
	var calls atomic.Int32
	go watchDisplays(stop, make(chan struct{}), 10*time.Millisecond, func() { calls.Add(1) })

	time.Sleep(50 * time.Millisecond)
	close(stop)
	assert.Zero(t, calls.Load())
}
