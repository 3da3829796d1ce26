package xlock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompletableBlockedGetUnblockedByComplete checks that a goroutine
// blocked in Get is released by a concurrent Complete, and that a second
// Complete call reports false without changing the stored value.
func TestCompletableBlockedGetUnblockedByComplete(t *testing.T) {
	c := NewEmptyCompletable[string]()

	got := make(chan string)
	go func() {
		got <- c.Get()
	}()

	time.Sleep(shortWait) // make sure the goroutine is actually parked in Get

	assert.True(t, c.Complete("first"))
	assert.False(t, c.Complete("second"), "a second Complete must not overwrite the first value")

	select {
	case v := <-got:
		assert.Equal(t, "first", v)
	case <-time.After(time.Second):
		t.Fatal("Get never unblocked after Complete")
	}

	v, ok := c.Peek()
	assert.True(t, ok)
	assert.Equal(t, "first", v)
}

func TestCompletableTryGetZeroOnEmpty(t *testing.T) {
	c := NewEmptyCompletable[int]()
	_, ok := c.TryGet(0)
	assert.False(t, ok)
}

func TestCompletableTryGetSucceedsOnPrefilled(t *testing.T) {
	c := NewCompletable(42)
	v, ok := c.TryGet(0)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestCompletablePeekOnEmpty(t *testing.T) {
	c := NewEmptyCompletable[int]()
	v, ok := c.Peek()
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func TestCompletableIsComplete(t *testing.T) {
	c := NewEmptyCompletable[int]()
	assert.False(t, c.IsComplete())
	c.Complete(1)
	assert.True(t, c.IsComplete())
}

// TestCompletableExclusiveRunsProducerAtMostOnce checks that concurrent
// callers race to fill the cell, but only the winner's producer ever runs.
func TestCompletableExclusiveRunsProducerAtMostOnce(t *testing.T) {
	c := NewEmptyCompletable[int]()

	const attempts = 32
	runs := make(chan int, attempts)
	done := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		i := i
		go func() {
			ok := c.CompleteExclusive(func() int {
				runs <- i
				return i
			})
			done <- ok
		}()
	}

	successes := 0
	for i := 0; i < attempts; i++ {
		if <-done {
			successes++
		}
	}
	close(runs)

	assert.Equal(t, 1, successes, "exactly one CompleteExclusive call should win")

	produced := 0
	for range runs {
		produced++
	}
	assert.Equal(t, 1, produced, "the producer must run exactly once across every caller")
}

func TestCompletableExclusiveSkipsProducerWhenAlreadyComplete(t *testing.T) {
	c := NewCompletable(9)

	called := false
	ok := c.CompleteExclusive(func() int {
		called = true
		return 100
	})

	assert.False(t, ok)
	assert.False(t, called, "the producer must not run against an already-complete cell")
	v, _ := c.Peek()
	assert.Equal(t, 9, v)
}

func TestCompletableIntoInner(t *testing.T) {
	c := NewCompletable("done")
	v, ok := c.IntoInner()
	assert.True(t, ok)
	assert.Equal(t, "done", v)

	empty := NewEmptyCompletable[string]()
	v2, ok2 := empty.IntoInner()
	assert.False(t, ok2)
	assert.Equal(t, "", v2)
}

func TestCompletableTryGetRespectsDeadline(t *testing.T) {
	c := NewEmptyCompletable[int]()
	start := time.Now()
	_, ok := c.TryGet(30 * time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 25*time.Millisecond)
}
