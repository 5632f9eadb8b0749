package atomicsync

import (
	"sync"
)

// The transactional guards execute short critical sections as a hardware
// memory transaction when the CPU supports it, without taking the lock at
// all: the lock word is merely read inside the transaction, so any
// non-transactional acquirer both aborts the transaction and is excluded
// by it. On abort, or when elision is unavailable, the guard simply takes
// the lock. Elision is an optimisation only; correctness never depends on
// a transaction committing.

// ExclusiveLocker is the exclusive-mode face of a lock that the elision
// guards can wrap. *Mutex, *SuxMutex and *RecursiveSuxMutex satisfy it.
type ExclusiveLocker interface {
	sync.Locker
	IsLockedOrWaiting() bool
}

// SharedElisionLocker is the shared-mode face the shared guard needs.
type SharedElisionLocker interface {
	SharedLocker
	IsLocked() bool
}

// UpdateElisionLocker is the update-mode face the update guard needs.
type UpdateElisionLocker interface {
	UpdateLocker
	IsLockedOrWaiting() bool
}

// TransactionalLockGuard holds either an elided or a really acquired
// exclusive lock. Release it with Unlock.
type TransactionalLockGuard struct {
	l      ExclusiveLocker
	elided bool
}

// TransactionalLock begins a hardware transaction and elides the lock when
// nobody holds or waits for it; otherwise, or on any abort, it acquires l.
func TransactionalLock(l ExclusiveLocker) TransactionalLockGuard {
	if xbeginStarted() {
		if !l.IsLockedOrWaiting() {
			return TransactionalLockGuard{l: l, elided: true}
		}
		xabort()
	}
	l.Lock()
	return TransactionalLockGuard{l: l}
}

// WasElided reports whether the critical section runs as a transaction.
func (g *TransactionalLockGuard) WasElided() bool { return g.elided }

// Unlock commits the transaction or releases the lock.
func (g *TransactionalLockGuard) Unlock() {
	if g.elided {
		xend()
	} else {
		g.l.Unlock()
	}
}

// TransactionalSharedLockGuard is the shared-mode counterpart of
// TransactionalLockGuard. Release it with UnlockShared.
type TransactionalSharedLockGuard struct {
	l      SharedElisionLocker
	elided bool
}

// TransactionalLockShared elides the shared lock when no exclusive lock is
// held; shared holders do not conflict with the transaction's read of the
// lock word, so waiting writers need not abort it.
func TransactionalLockShared(l SharedElisionLocker) TransactionalSharedLockGuard {
	if xbeginStarted() {
		if !l.IsLocked() {
			return TransactionalSharedLockGuard{l: l, elided: true}
		}
		xabort()
	}
	l.LockShared()
	return TransactionalSharedLockGuard{l: l}
}

// WasElided reports whether the critical section runs as a transaction.
func (g *TransactionalSharedLockGuard) WasElided() bool { return g.elided }

// UnlockShared commits the transaction or releases the shared lock.
func (g *TransactionalSharedLockGuard) UnlockShared() {
	if g.elided {
		xend()
	} else {
		g.l.UnlockShared()
	}
}

// TransactionalUpdateLockGuard is the update-mode counterpart of
// TransactionalLockGuard. Release it with UnlockUpdate.
type TransactionalUpdateLockGuard struct {
	l      UpdateElisionLocker
	elided bool
}

// TransactionalLockUpdate elides the update lock when nobody holds or
// waits for any U or X mode.
func TransactionalLockUpdate(l UpdateElisionLocker) TransactionalUpdateLockGuard {
	if xbeginStarted() {
		if !l.IsLockedOrWaiting() {
			return TransactionalUpdateLockGuard{l: l, elided: true}
		}
		xabort()
	}
	l.LockUpdate()
	return TransactionalUpdateLockGuard{l: l}
}

// WasElided reports whether the critical section runs as a transaction.
func (g *TransactionalUpdateLockGuard) WasElided() bool { return g.elided }

// UnlockUpdate commits the transaction or releases the update lock.
func (g *TransactionalUpdateLockGuard) UnlockUpdate() {
	if g.elided {
		xend()
	} else {
		g.l.UnlockUpdate()
	}
}

func xbeginStarted() bool {
	return haveTM && xbegin() == xbeginStartedStatus
}
