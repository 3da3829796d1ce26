package xlock

import (
	"io/ioutil"
	"log"
	"math/rand"
	"os"
	"testing"
)

const (
	serialConcurrency = 1
	lowConcurrency    = 2
	mediumConcurrency = 10
	highConcurrency   = 20

	writeFrac      = 0.1
	heavyWriteFrac = 0.5
)

/* Ensure the values are nondecreasing. Every writer increments every
 * element of the array in index order, so a snapshot taken under a read
 * guard holds equal elements; an element larger than the one after it means
 * the snapshot saw a write in progress. */
func testNonDecreasing(b *testing.B, values []uint32) {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			b.Fatalf("nondecreasing value violated at index %d: %d > %d", i, values[i-1], values[i])
		}
	}
}

func benchmarkLocking(b *testing.B, kind ModeratorKind, concurrency int, writePerc int) []uint32 {
	l := log.New(os.Stderr, "", 0)
	l.SetOutput(ioutil.Discard)

	lock := NewLocklike[[10]uint32](kind, [10]uint32{})
	barrier := make(chan bool, concurrency)

	reader := func() {
		g := lock.Read()
		l.Printf("reader observed %v\n", *g.Get())
		g.Release()
		<-barrier
	}

	writer := func() {
		g := lock.Write()
		v := g.Get()
		for i := range v {
			v[i]++
		}
		l.Printf("writer produced %v\n", *v)
		g.Release()
		<-barrier
	}

	for i := 0; i < b.N; i++ {
		rw := rand.Intn(100) < writePerc
		barrier <- true
		if rw {
			go writer()
		} else {
			go reader()
		}
	}

	for {
		select {
		case <-barrier:
		default:
			g := lock.Read()
			ret := append([]uint32(nil), g.Get()[:]...)
			g.Release()
			return ret
		}
	}
}

func BenchmarkSerial(b *testing.B) {
	for _, kind := range ModeratorKinds {
		b.Run(kind.String(), func(b *testing.B) {
			ret := benchmarkLocking(b, kind, serialConcurrency, int(writeFrac*100))
			testNonDecreasing(b, ret)
		})
	}
}

func BenchmarkSerialHeavyWrites(b *testing.B) {
	for _, kind := range ModeratorKinds {
		b.Run(kind.String(), func(b *testing.B) {
			ret := benchmarkLocking(b, kind, serialConcurrency, int(heavyWriteFrac*100))
			testNonDecreasing(b, ret)
		})
	}
}

func BenchmarkLowConcurrency(b *testing.B) {
	for _, kind := range ModeratorKinds {
		b.Run(kind.String(), func(b *testing.B) {
			ret := benchmarkLocking(b, kind, lowConcurrency, int(writeFrac*100))
			testNonDecreasing(b, ret)
		})
	}
}

func BenchmarkMediumConcurrency(b *testing.B) {
	for _, kind := range ModeratorKinds {
		b.Run(kind.String(), func(b *testing.B) {
			ret := benchmarkLocking(b, kind, mediumConcurrency, int(writeFrac*100))
			testNonDecreasing(b, ret)
		})
	}
}

func BenchmarkHighConcurrency(b *testing.B) {
	for _, kind := range ModeratorKinds {
		b.Run(kind.String(), func(b *testing.B) {
			benchmarkLocking(b, kind, highConcurrency, int(writeFrac*100))
		})
	}
}

func BenchmarkHighConcurrencyHeavyWrites(b *testing.B) {
	for _, kind := range ModeratorKinds {
		b.Run(kind.String(), func(b *testing.B) {
			benchmarkLocking(b, kind, highConcurrency, int(heavyWriteFrac*100))
		})
	}
}
