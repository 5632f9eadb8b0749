//go:build !linux || atomicsync_no_futex

package futex

import (
	"sync/atomic"
	"unsafe"

	"github.com/dr-m/atomic-sync/internal/opt"
)

// The generic backend parks waiters on a fixed table of stripes hashed by
// word address, the way user-space futex emulations are usually built.
// Each stripe pairs a waiter count with a counted runtime semaphore:
// a wake token handed out before the waiter actually sleeps still satisfies
// that waiter's acquire, so wakeups are never lost, and a stale token merely
// causes one spurious wakeup later.
const stripeCount = 64

type stripe struct {
	waiters atomic.Int32
	sema    opt.Sema
	_       [(opt.CacheLineSize_ - unsafe.Sizeof(struct {
		waiters atomic.Int32
		sema    opt.Sema
	}{})%opt.CacheLineSize_) % opt.CacheLineSize_]byte
}

var stripes [stripeCount]stripe

func stripeFor(p unsafe.Pointer) *stripe {
	// Fibonacci hash of the address; the top 6 bits pick one of 64 stripes.
	h := uint64(uintptr(p)) * 0x9e3779b97f4a7c15
	return &stripes[h>>58]
}

// Wait sleeps while the word equals cmp.
func (f *Futex) Wait(cmp uint32) {
	s := stripeFor(unsafe.Pointer(f))
	s.waiters.Add(1)
	if f.Load() == cmp {
		s.sema.Acquire()
	}
	s.waiters.Add(-1)
}

// Wake wakes the waiters sleeping on the word.
//
// A stripe is shared between unrelated words, so handing out a single token
// could feed a waiter on another word and strand the intended one. Wake
// therefore releases the whole stripe; the surplus is absorbed as spurious
// wakeups by the callers' retest loops.
func (f *Futex) Wake() {
	f.WakeAll()
}

// WakeAll wakes every waiter sleeping on the word's stripe.
func (f *Futex) WakeAll() {
	s := stripeFor(unsafe.Pointer(f))
	for n := s.waiters.Load(); n > 0; n-- {
		s.sema.Release()
	}
}
