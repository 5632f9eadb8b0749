// Package atomicsync provides slim user-space synchronization primitives
// layered over a single futex-style wait/wake facility: a non-recursive
// Mutex with an optional spin phase, a Shared/Update/Exclusive (SUX) mutex,
// a recursive SUX mutex with transferable ownership, a condition variable
// that cooperates with all of them, and optional hardware lock elision
// guards.
//
// Waiter counts and mode flags are packed into 32-bit atomic words: one
// word for Mutex and CondVar, and for the SUX mutexes a gate Mutex plus one
// inner word. On each word the acquire, the release and the "is a wakeup
// needed" check are single atomic instructions. The OS is only entered when
// a thread actually has to sleep or be woken.
package atomicsync

import (
	_ "unsafe" // for go:linkname
)

// spinRounds bounds the optimistic spin phase of the SpinLock acquire paths
// before they fall back to sleeping on the state word.
const spinRounds = 50

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

func trySpin(spins *int) bool {
	if runtime_canSpin(*spins) {
		*spins++
		runtime_doSpin()
		return true
	}
	return false
}

// nolint:all
//
//go:linkname runtime_canSpin sync.runtime_canSpin
func runtime_canSpin(i int) bool

// nolint:all
//
//go:linkname runtime_doSpin sync.runtime_doSpin
func runtime_doSpin()
