package atomicsync

import (
	"github.com/dr-m/atomic-sync/internal/futex"
)

// suxX flags an exclusive lock being held or waited for in the inner word.
// The low 31 bits count shared holders, plus one if update mode is held.
const suxX = 1 << 31

// SuxMutex is a slim Shared/Update/Exclusive lock without recursion.
//
// At most one thread may hold the exclusive (X) mode, such that no other
// thread holds anything at the same time. At most one thread may hold the
// update (U) mode at a time; any number of shared (S) holders may coexist
// with it. While a thread is waiting for X, further LockShared calls block
// until that X lock has been granted and released: writers have priority
// over new readers.
//
// The composition is a mutex (the writer gate, held for the whole duration
// of a U or X lock) plus one inner 32-bit word, following the ssux_lock of
// MariaDB and the sleeping rw-locks at
// http://locklessinc.com/articles/sleeping_rwlocks/.
// Two wait queues result: the gate's own, on which writers and starved-out
// readers sleep, and the inner word's, on which a granted X request waits
// for the last shared holder to drain.
//
// It is zero-value usable and must not be copied or moved after first use.
type SuxMutex struct {
	_     noCopy
	inner futex.Futex
	outer Mutex
}

// IsLocked reports whether the exclusive mode is held.
//
//go:nosplit
func (su *SuxMutex) IsLocked() bool {
	return su.inner.Load() == suxX
}

// IsLockedOrWaiting reports whether the exclusive mode is held or the
// writer gate is held or waited for, that is, whether any U or X lock is
// held or requested. Shared holders alone do not make it report true.
//
//go:nosplit
func (su *SuxMutex) IsLockedOrWaiting() bool {
	return su.IsLocked() || su.outer.IsLockedOrWaiting()
}

// TryLockShared attempts to acquire the shared mode. It fails as soon as an
// exclusive lock is held or intended, without touching the writer gate.
func (su *SuxMutex) TryLockShared() bool {
	for {
		lk := su.inner.Load()
		if lk&suxX != 0 {
			return false
		}
		assert(lk < suxX-1)
		if su.inner.CompareAndSwap(lk, lk+1) {
			return true
		}
	}
}

// LockShared acquires the shared mode. On conflict with an exclusive
// request the caller takes and drops the writer gate before retrying, which
// parks it behind the writer: this is what gives writers priority over new
// readers.
func (su *SuxMutex) LockShared() {
	if su.TryLockShared() {
		return
	}
	for {
		su.outer.Lock()
		ok := su.TryLockShared()
		su.outer.Unlock()
		if ok {
			return
		}
	}
}

// SpinLockShared is LockShared with a bounded spin phase, for sections so
// short that sleeping is usually a waste.
func (su *SuxMutex) SpinLockShared() {
	var spins int
	for i := 0; i < spinRounds; i++ {
		if su.TryLockShared() {
			return
		}
		if !trySpin(&spins) {
			break
		}
	}
	for {
		su.outer.SpinLock()
		ok := su.TryLockShared()
		su.outer.Unlock()
		if ok {
			return
		}
	}
}

// UnlockShared releases the shared mode, waking an exclusive waiter when
// the last shared holder blocking it leaves.
func (su *SuxMutex) UnlockShared() {
	lk := su.inner.Add(^uint32(0))
	assert((lk+1)&^uint32(suxX) != 0)
	if lk == suxX {
		su.inner.Wake()
	}
}

// TryLockUpdate attempts to acquire the update mode without blocking.
func (su *SuxMutex) TryLockUpdate() bool {
	if !su.outer.TryLock() {
		return false
	}
	lk := su.inner.Add(1)
	assert(lk&suxX == 0 && lk != 0)
	return true
}

// LockUpdate acquires the update mode, which coexists with shared holders
// but excludes other update and exclusive locks.
func (su *SuxMutex) LockUpdate() {
	su.outer.Lock()
	lk := su.inner.Add(1)
	assert(lk&suxX == 0 && lk != 0)
}

// SpinLockUpdate is LockUpdate with a bounded spin phase on the writer gate.
func (su *SuxMutex) SpinLockUpdate() {
	su.outer.SpinLock()
	lk := su.inner.Add(1)
	assert(lk&suxX == 0 && lk != 0)
}

// UnlockUpdate releases the update mode.
func (su *SuxMutex) UnlockUpdate() {
	lk := su.inner.Add(^uint32(0))
	assert(lk != ^uint32(0) && lk&suxX == 0)
	su.outer.Unlock()
}

// TryLock attempts to acquire the exclusive mode without blocking: it backs
// the writer gate out again if any shared or update holder is present.
func (su *SuxMutex) TryLock() bool {
	if !su.outer.TryLock() {
		return false
	}
	if su.inner.CompareAndSwap(0, suxX) {
		return true
	}
	su.outer.Unlock()
	return false
}

// Lock acquires the exclusive mode: win the writer gate, announce the
// intent on the inner word, then wait for existing shared holders to drain.
func (su *SuxMutex) Lock() {
	tracePreLock(&su.inner)
	su.outer.Lock()
	su.lockInner()
	tracePostLock(&su.inner)
}

// SpinLock is Lock with a bounded spin phase on the writer gate.
func (su *SuxMutex) SpinLock() {
	tracePreLock(&su.inner)
	su.outer.SpinLock()
	su.lockInner()
	tracePostLock(&su.inner)
}

// Unlock releases the exclusive mode.
func (su *SuxMutex) Unlock() {
	tracePreUnlock(&su.inner)
	assert(su.IsLocked())
	su.inner.Store(0)
	su.outer.Unlock()
	tracePostUnlock(&su.inner)
}

// UpdateLockUpgrade atomically promotes the update mode to exclusive,
// waiting for the current shared holders to drain. The writer gate is
// already ours, so no other U or X request can slip in between.
func (su *SuxMutex) UpdateLockUpgrade() {
	lk := su.inner.Add(suxX-1) - (suxX - 1)
	assert(lk != 0 && lk&suxX == 0)
	if lk != 1 {
		su.lockInnerWait(lk - 1)
	}
}

// LockUpdateDowngrade demotes the exclusive mode to update without
// blocking. Readers that queued on the writer gate while X was set stay
// parked there until UnlockUpdate; the downgrade is expected to be followed
// by the release shortly.
func (su *SuxMutex) LockUpdateDowngrade() {
	assert(su.IsLocked())
	su.inner.Store(1)
}

// lockInner acquires the exclusive mode on the inner word while holding the
// writer gate.
func (su *SuxMutex) lockInner() {
	if lk := su.inner.Or(suxX); lk != 0 {
		su.lockInnerWait(lk)
	}
}

// lockInnerWait sleeps until the remaining shared holders have drained.
// lk is a recent count of pending UnlockShared calls.
func (su *SuxMutex) lockInnerWait(lk uint32) {
	assert(lk < suxX)
	lk |= suxX
	for {
		assert(lk > suxX)
		su.inner.Wait(lk)
		lk = su.inner.Load()
		if lk == suxX {
			return
		}
	}
}
