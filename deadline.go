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
	"math"
	"sync"
	"time"
)

// MaxDuration is the sentinel meaning "wait forever". Passing it to any of
// this package's timed acquisition functions is equivalent to calling the
// untimed variant. A duration of zero means "try once, do not wait".
const MaxDuration = time.Duration(math.MaxInt64)

// deadline lazily materializes an absolute point in time from a relative
// Duration. The clock is only read on the first call to remaining; every
// subsequent call derives the time left from that one fixed point, so a
// caller that loops on a condition variable does not push its effective
// deadline out on every spurious wakeup.
type deadline struct {
	d        time.Duration
	computed bool
	at       time.Time
}

func newLazyDeadline(d time.Duration) deadline {
	return deadline{d: d}
}

// remaining returns the time left until the deadline, clamped at zero.
// For MaxDuration it always returns MaxDuration without touching the clock.
func (dl *deadline) remaining() time.Duration {
	if dl.d == MaxDuration {
		return MaxDuration
	}
	if !dl.computed {
		dl.at = time.Now().Add(dl.d)
		dl.computed = true
	}
	left := time.Until(dl.at)
	if left < 0 {
		return 0
	}
	return left
}

// condWaitTimeout parks the calling goroutine on cond, which must be bound
// to a currently-held sync.Mutex, for up to d. It returns once cond has been
// signalled or d has elapsed; callers must re-check their predicate and the
// deadline's remaining() themselves, per the usual condition-variable
// discipline (spurious and timeout wakeups look identical from here).
//
// sync.Cond has no native timed wait, so a wakeup is arranged with a timer
// that, on firing, takes cond's lock and broadcasts -- the standard way to
// bound a sync.Cond wait without replacing it with a different primitive.
func condWaitTimeout(cond *sync.Cond, d time.Duration) {
	if d == MaxDuration {
		cond.Wait()
		return
	}
	timer := time.AfterFunc(d, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	cond.Wait()
	timer.Stop()
}
