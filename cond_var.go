package atomicsync

import (
	"sync"

	"github.com/dr-m/atomic-sync/internal/futex"
)

// SharedLocker is the shared-mode face of a SUX mutex. Both *SuxMutex and
// *RecursiveSuxMutex satisfy it.
type SharedLocker interface {
	LockShared()
	UnlockShared()
}

// UpdateLocker is the update-mode face of a SUX mutex. Both *SuxMutex and
// *RecursiveSuxMutex satisfy it.
type UpdateLocker interface {
	LockUpdate()
	UnlockUpdate()
}

// CondVar is a condition variable that keeps a count of waiters, so that
// Signal and Broadcast only enter the OS when pending waiters exist.
//
// In addition to Wait, which pairs with any exclusive locker, WaitShared
// and WaitUpdate pair with the corresponding modes of a SUX mutex.
//
// As with sync.Cond, a wakeup can be spurious from the caller's point of
// view: re-test the predicate in a loop around Wait. The waiter registers
// itself while still holding the lock, so a signaller that acquires the
// same lock afterwards is guaranteed to observe IsWaiting() == true.
//
// Zero-value usable; must not be copied or moved after first use.
//
// Size: 4 bytes.
type CondVar struct {
	_       noCopy
	waiters futex.Futex
}

// Wait atomically releases l, sleeps until a signal or a spurious wakeup,
// and re-acquires l before returning.
func (cv *CondVar) Wait(l sync.Locker) {
	lk := cv.waiters.Add(1)
	l.Unlock()
	cv.waiters.Wait(lk)
	l.Lock()
}

// WaitShared is Wait for a lock held in shared mode.
func (cv *CondVar) WaitShared(l SharedLocker) {
	lk := cv.waiters.Add(1)
	l.UnlockShared()
	cv.waiters.Wait(lk)
	l.LockShared()
}

// WaitUpdate is Wait for a lock held in update mode.
func (cv *CondVar) WaitUpdate(l UpdateLocker) {
	lk := cv.waiters.Add(1)
	l.UnlockUpdate()
	cv.waiters.Wait(lk)
	l.LockUpdate()
}

// IsWaiting reports whether at least one waiter has registered and not yet
// been released.
//
//go:nosplit
func (cv *CondVar) IsWaiting() bool {
	return cv.waiters.Load() != 0
}

// Signal wakes one waiter, if any. Call while holding the lock the waiters
// used, or the wakeup may race with a registration in progress.
func (cv *CondVar) Signal() {
	tracePreSignal(&cv.waiters)
	if cv.waiters.Swap(0) != 0 {
		cv.waiters.Wake()
	}
	tracePostSignal(&cv.waiters)
}

// Broadcast wakes every waiter, if any.
func (cv *CondVar) Broadcast() {
	tracePreSignal(&cv.waiters)
	if cv.waiters.Swap(0) != 0 {
		cv.waiters.WakeAll()
	}
	tracePostSignal(&cv.waiters)
}
