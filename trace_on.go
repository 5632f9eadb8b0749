//go:build atomicsync_trace

package atomicsync

import (
	"sync/atomic"
	"unsafe"

	"github.com/dr-m/atomic-sync/internal/futex"
	"github.com/llxisdsh/pb"
)

const traceEnabled = true

// traceCounts tallies the hook events observed on one state word. The
// counters are the sanitizer-bridge event set: pre/post lock, unlock and
// signal. They are observable side effects only; nothing reads them back on
// any lock path.
type traceCounts struct {
	preLock    atomic.Uint64
	postLock   atomic.Uint64
	preUnlock  atomic.Uint64
	postUnlock atomic.Uint64
	preSignal  atomic.Uint64
	postSignal atomic.Uint64
}

var traceEvents pb.MapOf[uintptr, *traceCounts]

func traceCountsFor(w *futex.Futex) *traceCounts {
	addr := uintptr(unsafe.Pointer(w))
	c, _ := traceEvents.ProcessEntry(
		addr,
		func(l *pb.EntryOf[uintptr, *traceCounts]) (*pb.EntryOf[uintptr, *traceCounts], *traceCounts, bool) {
			if l != nil {
				return l, l.Value, true
			}
			c := &traceCounts{}
			return &pb.EntryOf[uintptr, *traceCounts]{Value: c}, c, false
		},
	)
	return c
}

// traceRange visits the per-word event counters recorded so far.
func traceRange(yield func(addr uintptr, c *traceCounts) bool) {
	traceEvents.Range(yield)
}

func tracePreLock(w *futex.Futex)    { traceCountsFor(w).preLock.Add(1) }
func tracePostLock(w *futex.Futex)   { traceCountsFor(w).postLock.Add(1) }
func tracePreUnlock(w *futex.Futex)  { traceCountsFor(w).preUnlock.Add(1) }
func tracePostUnlock(w *futex.Futex) { traceCountsFor(w).postUnlock.Add(1) }
func tracePreSignal(w *futex.Futex)  { traceCountsFor(w).preSignal.Add(1) }
func tracePostSignal(w *futex.Futex) { traceCountsFor(w).postSignal.Add(1) }
