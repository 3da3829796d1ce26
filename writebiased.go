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

// WriteBiased yields to any writer that is already active or queued: a new
// reader waits behind a waiting writer rather than overtaking it, trading
// reader throughput for bounded writer latency. Writers always cut the queue
// ahead of new readers, so writers arriving in quick succession can starve
// readers; readers already admitted before a writer arrived are unaffected.
type WriteBiased = writeBiasedState

type writeBiasedState struct {
	mu   sync.Mutex
	cond *sync.Cond

	readers        int
	writer         bool
	writersWaiting int
	pendingUpgrade bool
}

func (s *writeBiasedState) init() {
	s.cond = sync.NewCond(&s.mu)
}

func (s *writeBiasedState) tryRead(d time.Duration) bool {
	dl := newLazyDeadline(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.writer || s.writersWaiting > 0 {
		remaining := dl.remaining()
		if remaining <= 0 {
			return false
		}
		condWaitTimeout(s.cond, remaining)
	}
	s.readers++
	return true
}

func (s *writeBiasedState) readUnlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readers <= 0 || s.writer {
		panic("xlock: read_unlock called on a lock with no outstanding reader")
	}
	s.readers--
	switch s.readers {
	case 1:
		s.cond.Broadcast()
	case 0:
		s.cond.Signal()
	}
}

func (s *writeBiasedState) tryWrite(d time.Duration) bool {
	dl := newLazyDeadline(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writersWaiting++
	defer func() { s.writersWaiting-- }()
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

func (s *writeBiasedState) writeUnlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.writer {
		panic("xlock: write_unlock called on a lock with no writer")
	}
	s.writer = false
	// Either a queued writer or a batch of readers may be eligible to
	// proceed next; only the woken goroutines themselves can tell which, so
	// wake them all and let each recheck its own admission condition.
	s.cond.Broadcast()
}

func (s *writeBiasedState) downgrade() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.writer || s.readers != 0 {
		panic("xlock: downgrade called on a lock not exclusively held")
	}
	s.readers = 1
	s.writer = false
	s.cond.Broadcast()
}

func (s *writeBiasedState) tryUpgrade(d time.Duration) bool {
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

func (s *writeBiasedState) quiescent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readers == 0 && !s.writer && !s.pendingUpgrade
}
