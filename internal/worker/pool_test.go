package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedWork(t *testing.T) {
	p := NewPool(Config{Workers: 2}, nil)
	defer p.Stop()

	var wg sync.WaitGroup
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, p.Go(func() {
			defer wg.Done()
			n.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(10), n.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(Config{Workers: 2}, nil)
	defer p.Stop()

	release := make(chan struct{})
	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		require.NoError(t, p.Go(func() {
			defer wg.Done()
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			<-release
			running.Add(-1)
		}))
	}

	require.Eventually(t, func() bool { return p.InFlight() == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolInvalidWorkerCountDefaults(t *testing.T) {
	p := NewPool(Config{Workers: 0}, nil)
	defer p.Stop()
	assert.Equal(t, 1, p.Workers())
}

func TestPoolRejectsAfterStop(t *testing.T) {
	p := NewPool(DefaultConfig(), nil)
	p.Stop()
	p.Stop()

	assert.ErrorIs(t, p.Go(func() {}), ErrPoolClosed)
	assert.Error(t, p.Context().Err())
}

func TestPoolRecoversPanics(t *testing.T) {
	p := NewPool(Config{Workers: 1}, nil)
	defer p.Stop()

	require.NoError(t, p.Go(func() { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, p.Go(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool stopped running work after a panic")
	}
}

func TestDeferredOrdering(t *testing.T) {
	var d Deferred
	var order []int
	for i := 1; i <= 3; i++ {
		require.NoError(t, d.Go(func() { order = append(order, i) }))
	}

	require.True(t, d.RunLast())
	require.True(t, d.RunNext())
	assert.Equal(t, 1, d.Pending())
	assert.Equal(t, 1, d.RunAll())
	assert.False(t, d.RunNext())

	assert.Equal(t, []int{3, 1, 2}, order)
}

func TestDeferredRunAllIncludesNestedWork(t *testing.T) {
	var d Deferred
	ran := 0
	require.NoError(t, d.Go(func() {
		ran++
		_ = d.Go(func() { ran++ })
	}))

	assert.Equal(t, 2, d.RunAll())
	assert.Equal(t, 2, ran)
}
