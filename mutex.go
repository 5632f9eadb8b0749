package atomicsync

import (
	"github.com/dr-m/atomic-sync/internal/futex"
)

// Mutex state word:
//
//	Bit 31:   HOLDER (some thread currently holds the lock)
//	Bit 0-30: count of threads in the acquire path, including the holder
//
// state == 0 means unheld with nobody acquiring. A waiter registers itself
// exactly once with a fetch-add for the whole lifetime of its acquire path,
// so a release always knows whether a wakeup might be needed from the single
// decrement it performs anyway.
const (
	mutexHolder = 1 << 31
	mutexWaiter = 1
)

// Mutex is a non-recursive mutual exclusion lock packed into one 32-bit
// word. It is zero-value usable and must not be copied or moved after first
// use: the wait facility sleeps on the word's address.
//
// Unlike sync.Mutex it exposes a SpinLock acquire with a bounded busy-wait
// phase, and the IsLocked / IsLockedOrWaiting predicates that the elision
// guards need.
//
// Size: 4 bytes.
type Mutex struct {
	_     noCopy
	state futex.Futex
}

// IsLocked reports whether some thread holds the lock.
//
//go:nosplit
func (m *Mutex) IsLocked() bool {
	return m.state.Load()&mutexHolder != 0
}

// IsLockedOrWaiting reports whether the lock is held or some thread is in
// the acquire path.
//
//go:nosplit
func (m *Mutex) IsLockedOrWaiting() bool {
	return m.state.Load() != 0
}

// TryLock attempts to acquire the lock without blocking.
//
//go:nosplit
func (m *Mutex) TryLock() bool {
	return m.state.CompareAndSwap(0, mutexHolder|mutexWaiter)
}

// Lock acquires the lock, sleeping on the state word while another thread
// holds it.
func (m *Mutex) Lock() {
	tracePreLock(&m.state)
	if !m.TryLock() {
		m.lockLoop(m.state.Add(mutexWaiter))
	}
	tracePostLock(&m.state)
}

// SpinLock is Lock with a bounded spin phase in front of the sleep: when the
// conflict resolves quickly, the system call is avoided entirely. The waiter
// registration is kept across the switch from spinning to sleeping.
func (m *Mutex) SpinLock() {
	tracePreLock(&m.state)
	if !m.TryLock() {
		m.spinWaitAndLock()
	}
	tracePostLock(&m.state)
}

// Unlock releases the lock and wakes one waiter if the state word shows
// that anybody might be sleeping on it.
func (m *Mutex) Unlock() {
	tracePreUnlock(&m.state)
	// Drop both the HOLDER flag and our own waiter registration.
	lk := m.state.Add(^uint32(mutexHolder))
	assert(lk&mutexHolder == 0)
	if lk != 0 {
		m.state.Wake()
	}
	tracePostUnlock(&m.state)
}

// lockLoop claims the HOLDER flag, sleeping whenever it is observed set.
// lk is the state value right after our waiter registration.
func (m *Mutex) lockLoop(lk uint32) {
	for {
		if lk&mutexHolder == 0 {
			lk = m.state.Or(mutexHolder)
			if lk&mutexHolder == 0 {
				// Acquired. Our own registration was included.
				assert(lk != 0)
				return
			}
			// Lost the race; lk is still the current value.
		} else {
			m.state.Wait(lk)
			lk = m.state.Load()
		}
	}
}

func (m *Mutex) spinWaitAndLock() {
	lk := m.state.Add(mutexWaiter)
	var spins int
	for i := 0; i < spinRounds; i++ {
		if lk&mutexHolder == 0 {
			lk = m.state.Or(mutexHolder)
			if lk&mutexHolder == 0 {
				assert(lk != 0)
				return
			}
		} else {
			lk = m.state.Load()
		}
		if !trySpin(&spins) {
			break
		}
	}
	m.lockLoop(lk)
}
