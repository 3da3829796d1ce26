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

import "time"

// moderator is the scheduling policy that decides which waiter on an XLock
// proceeds next. S is the concrete, mutex/condvar-guarded state a particular
// policy needs; M is a pointer to S implementing the policy's operations.
// This mirrors the Rust original's Spec trait, whose associated Sync type
// plays the role of S here -- Go generics have no associated-type feature,
// so the state type is threaded through as its own type parameter and M is
// constrained to *S plus the method set below (the "pointer-receiver type
// parameter" pattern).
//
// Every method below is invoked with the state's own mutex NOT held by the
// caller; each moderator takes and releases it internally, and must never
// hold it while the XLock's protected value is being read or written by the
// caller -- moderator state and the protected value are guarded
// independently.
type moderator[S any] interface {
	*S

	init()

	tryRead(d time.Duration) bool
	readUnlock()

	tryWrite(d time.Duration) bool
	writeUnlock()

	downgrade()
	tryUpgrade(d time.Duration) bool

	// quiescent reports whether the lock is currently held by nobody and has
	// no pending upgrader (ArrivalOrdered additionally requires its waiter
	// queue to be empty), i.e. whether it is safe to reclaim the protected
	// value via XLock.IntoInner.
	quiescent() bool
}

// noCopy guards against accidental duplication of guard values, the same
// role sync.noCopy plays for the standard library's own lock types. Guards
// are meant to be released on the same goroutine that acquired them; a
// copied guard could be released twice or from the wrong place.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
