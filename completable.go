// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package xlock

import (
	"sync"
	"time"
)

// Completable is a write-once container: exactly one transition from empty
// to filled happens over its lifetime, and once filled the stored value is
// immutable, so every reader after the first successful completion can read
// it without further synchronization.
type Completable[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	value T
	full  bool
}

// NewCompletable constructs a Completable that is already filled with v.
func NewCompletable[T any](v T) *Completable[T] {
	c := &Completable[T]{value: v, full: true}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// NewEmptyCompletable constructs an empty Completable.
func NewEmptyCompletable[T any]() *Completable[T] {
	c := &Completable[T]{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Complete fills the cell with v if it is currently empty, waking every
// waiter of Get/TryGet, and reports whether it did so. The first caller
// across all goroutines wins; every later call discards its argument and
// returns false without altering the stored value.
func (c *Completable[T]) Complete(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.value = v
	c.full = true
	c.cond.Broadcast()
	return true
}

// CompleteExclusive calls produce and stores its result only if the cell is
// currently empty, reporting whether it did so. The empty-check and the
// fill happen under the same lock, so produce is invoked at most once
// across every goroutine that ever calls CompleteExclusive on this
// instance -- a caller that loses the race never has its producer called at
// all, unlike a naive IsComplete-then-Complete sequence which could run two
// producers concurrently before either publishes.
func (c *Completable[T]) CompleteExclusive(produce func() T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.value = produce()
	c.full = true
	c.cond.Broadcast()
	return true
}

// IsComplete reports, as of this call, whether the cell has been filled.
func (c *Completable[T]) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.full
}

// Peek returns the stored value and true if the cell is filled, or the zero
// value and false otherwise. It never blocks.
func (c *Completable[T]) Peek() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.full
}

// Get blocks until the cell is filled and returns the stored value.
func (c *Completable[T]) Get() T {
	v, ok := c.TryGet(MaxDuration)
	if !ok {
		panic("xlock: get() did not complete despite an unbounded deadline")
	}
	return v
}

// TryGet is like Get, but gives up once d elapses, returning the zero value
// and false on timeout.
func (c *Completable[T]) TryGet(d time.Duration) (T, bool) {
	dl := newLazyDeadline(d)
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.full {
		remaining := dl.remaining()
		if remaining <= 0 {
			var zero T
			return zero, false
		}
		condWaitTimeout(c.cond, remaining)
	}
	return c.value, true
}

// IntoInner consumes the cell, returning the stored value and whether it had
// been filled.
func (c *Completable[T]) IntoInner() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.full
}
