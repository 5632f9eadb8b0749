package atomicsync

import (
	"sync/atomic"

	"github.com/dr-m/atomic-sync/internal/goid"
)

// ThreadID identifies the goroutine that owns the U or X mode of a
// RecursiveSuxMutex.
type ThreadID uint64

// NoThread is the ThreadID of a disowned or free lock.
const NoThread ThreadID = 0

// CurrentThreadID returns the identity of the calling goroutine, for use
// with RecursiveSuxMutex.SetOwner after a disowned acquisition.
func CurrentThreadID() ThreadID {
	return ThreadID(goid.ID())
}

// recursive field encoding: the X count lives in the low half, the U count
// in the high half. Upgrading multiplies the U count into the X position;
// downgrading reverses that, transforming every held level at once.
const (
	recursiveX         = 1
	recursiveU         = 1 << 16
	recursiveFieldMask = recursiveU - 1
	recursiveMax       = 1<<15 - 1
)

// RecursiveSuxMutex is a SuxMutex whose U and X modes are re-entrant for
// the owning goroutine. Shared locks remain non-recursive.
//
// The owner of the U or X mode is tracked so that re-entrant calls can
// bump a counter instead of re-entering the writer gate. Ownership can also
// be left open: the *Disowned acquisitions take the lock on behalf of a
// goroutine that will claim it later with SetOwner — for example a write
// completion callback releasing a lock some other goroutine took.
//
// The recursion and owner fields are guarded by the writer gate; the owner
// is additionally loaded atomically by the Holding* predicates, where a
// mismatch is harmless and simply reports "not ours".
type RecursiveSuxMutex struct {
	sux       SuxMutex
	recursive uint32
	owner     atomic.Uint64
}

// IsLocked reports whether the exclusive mode is held.
func (su *RecursiveSuxMutex) IsLocked() bool {
	return su.sux.IsLocked()
}

// IsLockedOrWaiting reports whether any U or X lock is held or requested.
// Shared holders alone do not make it report true.
func (su *RecursiveSuxMutex) IsLockedOrWaiting() bool {
	return su.sux.IsLockedOrWaiting()
}

// SetOwner transfers the ownership of the held U or X lock to the given
// goroutine, or to NoThread to disown it. Only the current owner, or a
// thread claiming a disowned lock, may call this, while the recursion
// count is at least one.
func (su *RecursiveSuxMutex) SetOwner(id ThreadID) {
	assert(su.recursive != 0)
	su.owner.Store(uint64(id))
}

// HoldingUOrX reports whether the calling goroutine owns the U or X mode.
func (su *RecursiveSuxMutex) HoldingUOrX() bool {
	isOwner := su.owner.Load() == uint64(CurrentThreadID())
	if isOwner {
		assert(su.recursive != 0)
	}
	return isOwner
}

// HoldingU reports whether the calling goroutine owns the U mode and has
// not upgraded any of it to X.
func (su *RecursiveSuxMutex) HoldingU() bool {
	return su.HoldingUOrX() && su.recursive&recursiveFieldMask == 0
}

// HoldingX reports whether the calling goroutine owns the X mode.
func (su *RecursiveSuxMutex) HoldingX() bool {
	return su.HoldingUOrX() && su.recursive&recursiveFieldMask != 0
}

// TryLockShared attempts to acquire the shared mode.
func (su *RecursiveSuxMutex) TryLockShared() bool {
	return su.sux.TryLockShared()
}

// LockShared acquires the shared mode. It is not re-entrant.
func (su *RecursiveSuxMutex) LockShared() {
	su.sux.LockShared()
}

// SpinLockShared is LockShared with a bounded spin phase.
func (su *RecursiveSuxMutex) SpinLockShared() {
	su.sux.SpinLockShared()
}

// UnlockShared releases the shared mode.
func (su *RecursiveSuxMutex) UnlockShared() {
	su.sux.UnlockShared()
}

// LockUpdate acquires the update mode, or bumps the recursion count when
// the calling goroutine already owns U or X.
func (su *RecursiveSuxMutex) LockUpdate() {
	id := CurrentThreadID()
	if su.owner.Load() == uint64(id) {
		su.writerRecurse(true)
		return
	}
	su.sux.LockUpdate()
	assert(su.recursive == 0)
	su.recursive = recursiveU
	su.owner.Store(uint64(id))
}

// LockUpdateDisowned acquires the update mode without an owner; the final
// owner must call SetOwner before releasing.
func (su *RecursiveSuxMutex) LockUpdateDisowned() {
	if assertEnabled {
		assert(su.owner.Load() != uint64(CurrentThreadID()))
	}
	su.sux.LockUpdate()
	assert(su.recursive == 0)
	su.recursive = recursiveU
}

// TryLockUpdate attempts to acquire the update mode; re-entrant attempts by
// the owner always succeed.
func (su *RecursiveSuxMutex) TryLockUpdate() bool {
	id := CurrentThreadID()
	if su.owner.Load() == uint64(id) {
		su.writerRecurse(true)
		return true
	}
	if !su.sux.TryLockUpdate() {
		return false
	}
	assert(su.recursive == 0)
	su.recursive = recursiveU
	su.owner.Store(uint64(id))
	return true
}

// TryLockUpdateDisowned is TryLockUpdate without taking ownership.
func (su *RecursiveSuxMutex) TryLockUpdateDisowned() bool {
	if assertEnabled {
		assert(su.owner.Load() != uint64(CurrentThreadID()))
	}
	if !su.sux.TryLockUpdate() {
		return false
	}
	assert(su.recursive == 0)
	su.recursive = recursiveU
	return true
}

// Lock acquires the exclusive mode, or bumps the recursion count when the
// calling goroutine already owns U or X.
func (su *RecursiveSuxMutex) Lock() {
	id := CurrentThreadID()
	if su.owner.Load() == uint64(id) {
		su.writerRecurse(false)
		return
	}
	su.sux.Lock()
	assert(su.recursive == 0)
	assert(su.owner.Load() == uint64(NoThread))
	su.recursive = recursiveX
	su.owner.Store(uint64(id))
}

// LockDisowned acquires the exclusive mode without an owner; the final
// owner must call SetOwner before releasing.
func (su *RecursiveSuxMutex) LockDisowned() {
	if assertEnabled {
		assert(su.owner.Load() != uint64(CurrentThreadID()))
	}
	su.sux.Lock()
	assert(su.recursive == 0)
	assert(su.owner.Load() == uint64(NoThread))
	su.recursive = recursiveX
}

// TryLock attempts to acquire the exclusive mode; re-entrant attempts by
// the owner always succeed.
func (su *RecursiveSuxMutex) TryLock() bool {
	id := CurrentThreadID()
	if su.owner.Load() == uint64(id) {
		su.writerRecurse(false)
		return true
	}
	if !su.sux.TryLock() {
		return false
	}
	assert(su.recursive == 0)
	su.recursive = recursiveX
	su.owner.Store(uint64(id))
	return true
}

// LockRecursive bumps the exclusive recursion count. The caller must
// already be holding X.
func (su *RecursiveSuxMutex) LockRecursive() {
	su.writerRecurse(false)
}

// LockUpdateRecursive bumps the update recursion count. The caller must
// already be holding U or X.
func (su *RecursiveSuxMutex) LockUpdateRecursive() {
	su.writerRecurse(true)
}

// UpdateLockUpgrade promotes the owner's update locks to exclusive locks,
// transforming every held level at once.
func (su *RecursiveSuxMutex) UpdateLockUpgrade() {
	if assertEnabled {
		assert(su.HoldingU())
	}
	su.sux.UpdateLockUpgrade()
	su.recursive /= recursiveU
}

// LockUpdateDowngrade demotes the owner's exclusive locks to update locks.
func (su *RecursiveSuxMutex) LockUpdateDowngrade() {
	if assertEnabled {
		assert(su.HoldingX())
		assert(su.recursive <= recursiveFieldMask)
	}
	su.recursive *= recursiveU
	su.sux.LockUpdateDowngrade()
}

// LockUpgraded acquires the exclusive mode, upgrading held update locks if
// there are any. It reports whether an upgrade took place, so the caller
// knows to downgrade rather than unlock when restoring the previous state.
func (su *RecursiveSuxMutex) LockUpgraded() bool {
	id := CurrentThreadID()
	if su.owner.Load() == uint64(id) {
		assert(su.recursive != 0)
		if su.recursive&recursiveFieldMask == 0 {
			su.UpdateLockUpgrade()
			return true
		}
		su.writerRecurse(false)
	} else {
		su.sux.Lock()
		assert(su.recursive == 0)
		su.recursive = recursiveX
		su.owner.Store(uint64(id))
	}
	return false
}

// Unlock releases one level of the exclusive mode; the underlying lock is
// released when the last level goes.
func (su *RecursiveSuxMutex) Unlock() {
	su.uOrXUnlock(false)
}

// UnlockUpdate releases one level of the update mode; the underlying lock
// is released when the last level goes.
func (su *RecursiveSuxMutex) UnlockUpdate() {
	su.uOrXUnlock(true)
}

func (su *RecursiveSuxMutex) writerRecurse(update bool) {
	if assertEnabled {
		assert(su.owner.Load() == uint64(CurrentThreadID()))
	}
	mult := uint32(recursiveX)
	if update {
		mult = recursiveU
	}
	if assertEnabled {
		rec := (su.recursive / mult) & recursiveFieldMask
		if update {
			assert(su.recursive != 0)
		} else {
			assert(rec != 0)
		}
		assert(rec < recursiveMax)
	}
	su.recursive += mult
}

func (su *RecursiveSuxMutex) uOrXUnlock(update bool) {
	mult := uint32(recursiveX)
	if update {
		mult = recursiveU
	}
	if assertEnabled {
		owner := su.owner.Load()
		assert(owner == uint64(CurrentThreadID()) ||
			(owner == uint64(NoThread) && su.recursive == mult))
		assert((su.recursive/mult)&recursiveFieldMask != 0)
	}
	su.recursive -= mult
	if su.recursive == 0 {
		su.owner.Store(uint64(NoThread))
		if update {
			su.sux.UnlockUpdate()
		} else {
			su.sux.Unlock()
		}
	}
}
