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

import "sync/atomic"

// SpinLock is a mutual-exclusion lock over a single atomic flag. Lock busy-
// waits rather than parking on a condition variable, so it should only
// guard very short critical sections.
type SpinLock[T any] struct {
	locked atomic.Bool
	data   T
}

// SpinGuard is the scoped token returned by SpinLock.Lock/TryLock. It must
// be released exactly once, by calling Release.
type SpinGuard[T any] struct {
	noCopy   noCopy
	lock     *SpinLock[T]
	released bool
}

// NewSpinLock constructs a SpinLock around v.
func NewSpinLock[T any](v T) *SpinLock[T] {
	return &SpinLock[T]{data: v}
}

// Lock spins until the flag can be compare-and-swapped from unlocked to
// locked, then returns a guard.
func (l *SpinLock[T]) Lock() *SpinGuard[T] {
	for {
		if g, ok := l.TryLock(); ok {
			return g
		}
	}
}

// TryLock makes a single compare-and-swap attempt and returns immediately.
func (l *SpinLock[T]) TryLock() (*SpinGuard[T], bool) {
	if l.locked.CompareAndSwap(false, true) {
		return &SpinGuard[T]{lock: l}, true
	}
	return nil, false
}

// GetMut borrows the interior directly, bypassing the flag entirely. Valid
// only when the caller otherwise has exclusive access to the lock handle.
func (l *SpinLock[T]) GetMut() *T {
	return &l.data
}

// IntoInner returns the protected value, consuming the lock. Panics if the
// flag is currently held.
func (l *SpinLock[T]) IntoInner() T {
	if l.locked.Load() {
		panic("xlock: into_inner called on a locked SpinLock")
	}
	return l.data
}

// Get dereferences the guard. Panics if the guard has already been released.
func (g *SpinGuard[T]) Get() *T {
	if g.released {
		panic("xlock: use of a released spin guard")
	}
	return &g.lock.data
}

// Release clears the flag. Panics if called more than once.
func (g *SpinGuard[T]) Release() {
	if g.released {
		panic("xlock: spin guard released twice")
	}
	g.released = true
	g.lock.locked.Store(false)
}
