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

// ReadBiased lets readers proceed immediately whenever no writer currently
// holds the lock, even if a writer is waiting. Under sustained reader
// traffic a waiting writer may never be scheduled; this is an accepted
// property of the policy, not a bug. Callers who need the opposite
// trade-off should use WriteBiased instead.
type ReadBiased = readBiasedState

type readBiasedState struct {
	mu   sync.Mutex
	cond *sync.Cond

	readers        int
	writer         bool
	pendingUpgrade bool
}

func (s *readBiasedState) init() {
	s.cond = sync.NewCond(&s.mu)
}

func (s *readBiasedState) tryRead(d time.Duration) bool {
	dl := newLazyDeadline(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.writer {
		remaining := dl.remaining()
		if remaining <= 0 {
			return false
		}
		condWaitTimeout(s.cond, remaining)
	}
	s.readers++
	return true
}

func (s *readBiasedState) readUnlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readers <= 0 || s.writer {
		panic("xlock: read_unlock called on a lock with no outstanding reader")
	}
	s.readers--
	switch s.readers {
	case 1:
		// Wake a would-be upgrader: it can only proceed once it is the sole
		// remaining reader.
		s.cond.Broadcast()
	case 0:
		s.cond.Signal()
	}
}

func (s *readBiasedState) tryWrite(d time.Duration) bool {
	dl := newLazyDeadline(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.readers != 0 || s.writer {
		remaining := dl.remaining()
		if remaining <= 0 {
			return false
		}
		condWaitTimeout(s.cond, remaining)
	}
	s.writer = true
	return true
}

func (s *readBiasedState) writeUnlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.writer {
		panic("xlock: write_unlock called on a lock with no writer")
	}
	s.writer = false
	// Every waiting reader is now admissible at once under this policy, not
	// just the next writer in line, so every waiter must recheck.
	s.cond.Broadcast()
}

func (s *readBiasedState) downgrade() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.writer || s.readers != 0 {
		panic("xlock: downgrade called on a lock not exclusively held")
	}
	s.readers = 1
	s.writer = false
	s.cond.Broadcast()
}

func (s *readBiasedState) tryUpgrade(d time.Duration) bool {
	dl := newLazyDeadline(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readers == 0 || s.writer {
		panic("xlock: try_upgrade called without a held read guard")
	}
	for s.pendingUpgrade {
		remaining := dl.remaining()
		if remaining <= 0 {
			return false
		}
		condWaitTimeout(s.cond, remaining)
	}
	s.pendingUpgrade = true
	for s.readers != 1 {
		remaining := dl.remaining()
		if remaining <= 0 {
			s.pendingUpgrade = false
			s.cond.Broadcast()
			return false
		}
		condWaitTimeout(s.cond, remaining)
	}
	s.readers = 0
	s.writer = true
	s.pendingUpgrade = false
	return true
}

func (s *readBiasedState) quiescent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readers == 0 && !s.writer && !s.pendingUpgrade
}
