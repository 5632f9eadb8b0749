// Package futex provides the wait/wake facility that the lock state words
// sleep on: park the calling goroutine until a 32-bit word changes, and wake
// one or all parked goroutines keyed on the same word.
//
// Two backends exist. On Linux the futex(2) system call is used directly
// (FUTEX_WAIT_PRIVATE / FUTEX_WAKE_PRIVATE). Everywhere else, and on Linux
// under the atomicsync_no_futex build tag, waiters park on an address-hashed
// stripe table backed by the runtime's counted semaphore.
package futex

import (
	"sync/atomic"
)

// Futex is a 32-bit word that goroutines can sleep on. Wait does not change
// the underlying value; it only compares it against the caller's snapshot
// before going to sleep, so that a wakeup between the caller's load and the
// sleep is never lost.
//
// A return from Wait can always be spurious. futex(2) says the same about
// FUTEX_WAIT: callers should conservatively re-read the word and decide in
// user space whether to continue blocking. Every caller in this module loops.
type Futex struct {
	atomic.Uint32
}
