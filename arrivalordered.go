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
	"container/list"
	"sync"
	"time"
)

// ArrivalOrdered serves waiters strictly in arrival order, modulo batching
// of readers that arrive with no intervening writer: such readers are all
// admitted once the writer ahead of them (if any) has released, rather than
// one at a time. Neither readers nor writers can starve under this policy.
type ArrivalOrdered = arrivalOrderedState

type ticketKind int

const (
	ticketReader ticketKind = iota
	ticketWriter
)

type ticket struct {
	kind ticketKind
}

type arrivalOrderedState struct {
	mu   sync.Mutex
	cond *sync.Cond

	readers        int
	writer         bool
	pendingUpgrade bool
	queue          *list.List // of *ticket, in arrival order
}

func (s *arrivalOrderedState) init() {
	s.cond = sync.NewCond(&s.mu)
	s.queue = list.New()
}

// canAdmit reports whether the ticket at elem may proceed right now, given
// the current holder state and every ticket ahead of it in the queue. Must
// be called with s.mu held.
func (s *arrivalOrderedState) canAdmit(elem *list.Element) bool {
	if s.writer {
		return false
	}
	for e := s.queue.Front(); e != nil; e = e.Next() {
		t := e.Value.(*ticket)
		if e == elem {
			if t.kind == ticketWriter {
				return e == s.queue.Front() && s.readers == 0
			}
			// No writer ticket precedes elem: elem is part of the
			// leading contiguous run of readers and may proceed.
			return true
		}
		if t.kind == ticketWriter {
			return false
		}
	}
	return false
}

func (s *arrivalOrderedState) tryRead(d time.Duration) bool {
	dl := newLazyDeadline(d)
	s.mu.Lock()
	defer s.mu.Unlock()

	elem := s.queue.PushBack(&ticket{kind: ticketReader})
	for !s.canAdmit(elem) {
		remaining := dl.remaining()
		if remaining <= 0 {
			s.queue.Remove(elem)
			// Our departure may have moved a new ticket to the head.
			s.cond.Broadcast()
			return false
		}
		condWaitTimeout(s.cond, remaining)
	}
	s.queue.Remove(elem)
	s.readers++
	// Wake the rest of the queue so any reader batched behind us re-checks
	// its own admission immediately, rather than waiting for our release.
	s.cond.Broadcast()
	return true
}

func (s *arrivalOrderedState) readUnlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readers <= 0 || s.writer {
		panic("xlock: read_unlock called on a lock with no outstanding reader")
	}
	s.readers--
	s.cond.Broadcast()
}

func (s *arrivalOrderedState) tryWrite(d time.Duration) bool {
	dl := newLazyDeadline(d)
	s.mu.Lock()
	defer s.mu.Unlock()

	elem := s.queue.PushBack(&ticket{kind: ticketWriter})
	for !s.canAdmit(elem) {
		remaining := dl.remaining()
		if remaining <= 0 {
			s.queue.Remove(elem)
			s.cond.Broadcast()
			return false
		}
		condWaitTimeout(s.cond, remaining)
	}
	s.queue.Remove(elem)
	s.writer = true
	return true
}

func (s *arrivalOrderedState) writeUnlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.writer {
		panic("xlock: write_unlock called on a lock with no writer")
	}
	s.writer = false
	s.cond.Broadcast()
}

func (s *arrivalOrderedState) downgrade() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.writer || s.readers != 0 {
		panic("xlock: downgrade called on a lock not exclusively held")
	}
	s.readers = 1
	s.writer = false
	s.cond.Broadcast()
}

func (s *arrivalOrderedState) tryUpgrade(d time.Duration) bool {
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

func (s *arrivalOrderedState) quiescent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readers == 0 && !s.writer && !s.pendingUpgrade && s.queue.Len() == 0
}
