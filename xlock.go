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

// Package xlock implements a moderator-parameterized reader-writer lock,
// plus a spinning mutex and a write-once completable cell.
//
// XLock generalizes the single-policy reader-writer lock into a family
// parameterized over a "moderator": a scheduling policy deciding which
// waiter proceeds next. Three moderators ship with this package --
// ReadBiased, WriteBiased and ArrivalOrdered -- trading away different
// fairness guarantees; callers pick one at compile time as a type parameter,
// or at run time through the Locklike façade (see locklike.go) when the
// choice of moderator is itself a configuration concern.
//
// Like this package's sibling SpinLock and Completable, every blocking
// operation accepts a time.Duration deadline: zero means "try once, do not
// wait", and MaxDuration means "wait forever". A timed-out acquisition
// leaves the lock exactly as it was and is reported by a false second
// return value, never a panic or an error value -- panics in this package
// are reserved for contract violations (releasing a guard twice, unlocking
// an already-unlocked state), a programming-bug category distinct from an
// ordinary timeout.
package xlock

import "time"

// XLock owns a value of type T, protected by a moderator whose state is S
// and whose operations are reached through the pointer-receiver type M. At
// most one writer or any number of readers may hold the lock at a time,
// never both; T is only ever mutated through a LockWriteGuard.
type XLock[T any, S any, M moderator[S]] struct {
	state S
	data  T
}

// NewXLock constructs a lock around v using moderator M.
//
// Typical instantiation picks one of the three supplied moderators:
//
//	l := xlock.NewXLock[int, xlock.ReadBiased](0)
func NewXLock[T any, S any, M moderator[S]](v T) *XLock[T, S, M] {
	l := &XLock[T, S, M]{data: v}
	M(&l.state).init()
	return l
}

// Read blocks until a read guard can be granted per the moderator's policy.
func (l *XLock[T, S, M]) Read() *LockReadGuard[T, S, M] {
	g, ok := l.TryRead(MaxDuration)
	if !ok {
		panic("xlock: read() did not acquire despite an unbounded deadline")
	}
	return g
}

// TryRead is like Read, but gives up once d elapses. A duration of zero
// succeeds only if a read guard is immediately available; MaxDuration is
// equivalent to Read.
func (l *XLock[T, S, M]) TryRead(d time.Duration) (*LockReadGuard[T, S, M], bool) {
	if !M(&l.state).tryRead(d) {
		return nil, false
	}
	return &LockReadGuard[T, S, M]{lock: l}, true
}

// Write blocks until an exclusive write guard can be granted.
func (l *XLock[T, S, M]) Write() *LockWriteGuard[T, S, M] {
	g, ok := l.TryWrite(MaxDuration)
	if !ok {
		panic("xlock: write() did not acquire despite an unbounded deadline")
	}
	return g
}

// TryWrite is like Write, but gives up once d elapses.
func (l *XLock[T, S, M]) TryWrite(d time.Duration) (*LockWriteGuard[T, S, M], bool) {
	if !M(&l.state).tryWrite(d) {
		return nil, false
	}
	return &LockWriteGuard[T, S, M]{lock: l}, true
}

// GetMut returns a pointer to the protected value with no locking at all,
// valid only when the caller otherwise has exclusive access to the lock
// handle itself (e.g. during construction, or once it is known that no
// other goroutine holds a reference to l).
func (l *XLock[T, S, M]) GetMut() *T {
	return &l.data
}

// IntoInner returns the protected value, consuming the lock. It panics if
// any read or write guard -- or a pending upgrade -- is outstanding, since
// Go cannot statically enforce the exclusive-ownership precondition the way
// a move-based language does.
func (l *XLock[T, S, M]) IntoInner() T {
	if !M(&l.state).quiescent() {
		panic("xlock: into_inner called while a guard is outstanding")
	}
	return l.data
}

// LockReadGuard is a scoped token granting shared read access to an XLock's
// protected value. It must be released exactly once, by calling Release (or
// by consuming it via Upgrade/TryUpgrade).
type LockReadGuard[T any, S any, M moderator[S]] struct {
	noCopy   noCopy
	lock     *XLock[T, S, M]
	released bool
}

// Get dereferences the guard. Panics if the guard has already been released.
func (g *LockReadGuard[T, S, M]) Get() *T {
	if g.released {
		panic("xlock: use of a released read guard")
	}
	return &g.lock.data
}

// Release relinquishes the read guard. Panics if called more than once.
func (g *LockReadGuard[T, S, M]) Release() {
	if g.released {
		panic("xlock: read guard released twice")
	}
	g.released = true
	M(&g.lock.state).readUnlock()
}

// Upgrade atomically converts this read guard into a write guard, blocking
// until the caller becomes the sole reader. There is no window in which
// another writer could acquire in between. The receiver is consumed.
func (g *LockReadGuard[T, S, M]) Upgrade() *LockWriteGuard[T, S, M] {
	outcome := g.TryUpgrade(MaxDuration)
	w := outcome.Upgraded
	if w == nil {
		panic("xlock: upgrade() did not acquire despite an unbounded deadline")
	}
	return w
}

// TryUpgrade attempts the same atomic conversion as Upgrade, but gives up
// once d elapses. On timeout the original read guard is returned unchanged
// -- the caller never loses read protection because the upgrade could not
// be granted.
func (g *LockReadGuard[T, S, M]) TryUpgrade(d time.Duration) UpgradeOutcome[T, S, M] {
	if g.released {
		panic("xlock: try_upgrade called on a released read guard")
	}
	lock := g.lock
	if M(&lock.state).tryUpgrade(d) {
		g.released = true
		return UpgradeOutcome[T, S, M]{Upgraded: &LockWriteGuard[T, S, M]{lock: lock}}
	}
	return UpgradeOutcome[T, S, M]{Unchanged: g}
}

// LockWriteGuard is a scoped token granting exclusive read-write access to
// an XLock's protected value. It must be released exactly once, by calling
// Release (or by consuming it via Downgrade).
type LockWriteGuard[T any, S any, M moderator[S]] struct {
	noCopy   noCopy
	lock     *XLock[T, S, M]
	released bool
}

// Get dereferences the guard for read-write access. Panics if the guard has
// already been released.
func (g *LockWriteGuard[T, S, M]) Get() *T {
	if g.released {
		panic("xlock: use of a released write guard")
	}
	return &g.lock.data
}

// Release relinquishes the write guard. Panics if called more than once.
func (g *LockWriteGuard[T, S, M]) Release() {
	if g.released {
		panic("xlock: write guard released twice")
	}
	g.released = true
	M(&g.lock.state).writeUnlock()
}

// Downgrade atomically converts this write guard into a read guard. No
// window exists in which another writer could acquire in between; this
// always succeeds. The receiver is consumed.
func (g *LockWriteGuard[T, S, M]) Downgrade() *LockReadGuard[T, S, M] {
	if g.released {
		panic("xlock: downgrade called on a released write guard")
	}
	lock := g.lock
	M(&lock.state).downgrade()
	g.released = true
	return &LockReadGuard[T, S, M]{lock: lock}
}

// UpgradeOutcome is the result of LockReadGuard.TryUpgrade: exactly one of
// Upgraded or Unchanged is set.
type UpgradeOutcome[T any, S any, M moderator[S]] struct {
	Upgraded  *LockWriteGuard[T, S, M]
	Unchanged *LockReadGuard[T, S, M]
}

// IsUpgraded reports whether the upgrade succeeded.
func (o UpgradeOutcome[T, S, M]) IsUpgraded() bool {
	return o.Upgraded != nil
}

// IsUnchanged reports whether the upgrade timed out, leaving the original
// read guard intact.
func (o UpgradeOutcome[T, S, M]) IsUnchanged() bool {
	return o.Unchanged != nil
}
