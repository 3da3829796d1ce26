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

// ModeratorKind enumerates the moderator policies a Locklike can be
// constructed with, for callers who want to select a policy at run time
// (configuration, tests iterating over every policy) rather than as a
// compile-time type parameter.
type ModeratorKind int

const (
	KindReadBiased ModeratorKind = iota
	KindWriteBiased
	KindArrivalOrdered
)

func (k ModeratorKind) String() string {
	switch k {
	case KindReadBiased:
		return "ReadBiased"
	case KindWriteBiased:
		return "WriteBiased"
	case KindArrivalOrdered:
		return "ArrivalOrdered"
	default:
		return "unknown moderator kind"
	}
}

// ModeratorKinds lists every moderator this package knows how to construct,
// for tests and callers that want to exercise all of them.
var ModeratorKinds = []ModeratorKind{KindReadBiased, KindWriteBiased, KindArrivalOrdered}

// Locklike is a type-erased handle onto "some XLock", for code that does
// not want to commit to a moderator as a type parameter. Direct users who
// pick a moderator at compile time use XLock itself and pay no indirection;
// Locklike trades that for run-time flexibility.
type Locklike[T any] interface {
	Read() DynReadGuard[T]
	TryRead(d time.Duration) (DynReadGuard[T], bool)
	Write() DynWriteGuard[T]
	TryWrite(d time.Duration) (DynWriteGuard[T], bool)
	GetMut() *T
	IntoInner() T
}

// DynReadGuard is the type-erased counterpart of LockReadGuard.
type DynReadGuard[T any] interface {
	Get() *T
	Release()
	Upgrade() DynWriteGuard[T]
	TryUpgrade(d time.Duration) DynUpgradeOutcome[T]
}

// DynWriteGuard is the type-erased counterpart of LockWriteGuard.
type DynWriteGuard[T any] interface {
	Get() *T
	Release()
	Downgrade() DynReadGuard[T]
}

// DynUpgradeOutcome is the type-erased counterpart of UpgradeOutcome.
type DynUpgradeOutcome[T any] struct {
	Upgraded  DynWriteGuard[T]
	Unchanged DynReadGuard[T]
}

func (o DynUpgradeOutcome[T]) IsUpgraded() bool  { return o.Upgraded != nil }
func (o DynUpgradeOutcome[T]) IsUnchanged() bool { return o.Unchanged != nil }

// NewLocklike constructs a Locklike backed by the moderator named by kind.
// This is the façade's factory, equivalent to the Rust original's
// ModeratorKind::make_lock_for_test over the full MODERATOR_KINDS set.
func NewLocklike[T any](kind ModeratorKind, v T) Locklike[T] {
	switch kind {
	case KindReadBiased:
		return &dynLock[T, ReadBiased, *ReadBiased]{XLock: NewXLock[T, ReadBiased, *ReadBiased](v)}
	case KindWriteBiased:
		return &dynLock[T, WriteBiased, *WriteBiased]{XLock: NewXLock[T, WriteBiased, *WriteBiased](v)}
	case KindArrivalOrdered:
		return &dynLock[T, ArrivalOrdered, *ArrivalOrdered]{XLock: NewXLock[T, ArrivalOrdered, *ArrivalOrdered](v)}
	default:
		panic("xlock: unknown moderator kind")
	}
}

// dynLock adapts a concrete XLock[T, S, M] to Locklike[T]. The erasure here
// is ordinary Go interface dispatch: unlike the Rust original, which needs a
// hand-written vtable (a Box<dyn Trait> captured at construction) because
// Rust guards don't have a uniform runtime type, Go's guard wrappers below
// already satisfy DynReadGuard/DynWriteGuard through their own method sets.
type dynLock[T any, S any, M moderator[S]] struct {
	*XLock[T, S, M]
}

func (l *dynLock[T, S, M]) Read() DynReadGuard[T] {
	return &dynReadGuard[T, S, M]{g: l.XLock.Read()}
}

func (l *dynLock[T, S, M]) TryRead(d time.Duration) (DynReadGuard[T], bool) {
	g, ok := l.XLock.TryRead(d)
	if !ok {
		return nil, false
	}
	return &dynReadGuard[T, S, M]{g: g}, true
}

func (l *dynLock[T, S, M]) Write() DynWriteGuard[T] {
	return &dynWriteGuard[T, S, M]{g: l.XLock.Write()}
}

func (l *dynLock[T, S, M]) TryWrite(d time.Duration) (DynWriteGuard[T], bool) {
	g, ok := l.XLock.TryWrite(d)
	if !ok {
		return nil, false
	}
	return &dynWriteGuard[T, S, M]{g: g}, true
}

type dynReadGuard[T any, S any, M moderator[S]] struct {
	g *LockReadGuard[T, S, M]
}

func (d *dynReadGuard[T, S, M]) Get() *T   { return d.g.Get() }
func (d *dynReadGuard[T, S, M]) Release()  { d.g.Release() }

func (d *dynReadGuard[T, S, M]) Upgrade() DynWriteGuard[T] {
	return &dynWriteGuard[T, S, M]{g: d.g.Upgrade()}
}

func (d *dynReadGuard[T, S, M]) TryUpgrade(dur time.Duration) DynUpgradeOutcome[T] {
	outcome := d.g.TryUpgrade(dur)
	if outcome.IsUpgraded() {
		return DynUpgradeOutcome[T]{Upgraded: &dynWriteGuard[T, S, M]{g: outcome.Upgraded}}
	}
	return DynUpgradeOutcome[T]{Unchanged: &dynReadGuard[T, S, M]{g: outcome.Unchanged}}
}

type dynWriteGuard[T any, S any, M moderator[S]] struct {
	g *LockWriteGuard[T, S, M]
}

func (d *dynWriteGuard[T, S, M]) Get() *T  { return d.g.Get() }
func (d *dynWriteGuard[T, S, M]) Release() { d.g.Release() }

func (d *dynWriteGuard[T, S, M]) Downgrade() DynReadGuard[T] {
	return &dynReadGuard[T, S, M]{g: d.g.Downgrade()}
}
