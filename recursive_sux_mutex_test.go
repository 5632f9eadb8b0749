package atomicsync

import (
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestRecursiveSuxMutex_DeepRecursion(t *testing.T) {
	const depth = 100

	var su RecursiveSuxMutex

	for range depth {
		su.Lock()
	}
	if !su.HoldingX() {
		t.Error("owner predicate false while holding X")
	}
	for range depth {
		su.Unlock()
	}

	if su.recursive != 0 {
		t.Errorf("recursion count %#x after full unwind", su.recursive)
	}
	if su.owner.Load() != uint64(NoThread) {
		t.Error("owner survived the full unwind")
	}
	if su.IsLockedOrWaiting() {
		t.Error("lock not clean")
	}
}

func TestRecursiveSuxMutex_MixedRecursion(t *testing.T) {
	var su RecursiveSuxMutex

	// U twice, then upgrade everything, release one X, downgrade the rest.
	su.LockUpdate()
	su.LockUpdate()
	if !su.HoldingU() {
		t.Error("expected to hold U only")
	}
	su.UpdateLockUpgrade()
	if !su.HoldingX() {
		t.Error("upgrade did not move the holder to X")
	}
	su.Unlock()
	if !su.HoldingX() {
		t.Error("one X level must remain")
	}
	su.LockUpdateDowngrade()
	if !su.HoldingU() {
		t.Error("downgrade did not move the holder back to U")
	}
	su.UnlockUpdate()

	if su.IsLockedOrWaiting() {
		t.Error("lock not clean")
	}
}

func TestRecursiveSuxMutex_LockUpgraded(t *testing.T) {
	var su RecursiveSuxMutex

	// Fresh acquisition: plain X, no upgrade.
	if su.LockUpgraded() {
		t.Error("upgrade reported on a fresh lock")
	}
	su.Unlock()

	// From U: upgrade, then restore with a downgrade.
	su.LockUpdate()
	if !su.LockUpgraded() {
		t.Error("no upgrade reported although U was held")
	}
	su.LockUpdateDowngrade()
	su.UnlockUpdate()

	// From X: plain recursion.
	su.Lock()
	if su.LockUpgraded() {
		t.Error("upgrade reported although X was already held")
	}
	su.Unlock()
	su.Unlock()

	if su.IsLockedOrWaiting() {
		t.Error("lock not clean")
	}
}

// Disowned acquisition in one goroutine, adoption and release in another.
func TestRecursiveSuxMutex_OwnershipTransfer(t *testing.T) {
	var su RecursiveSuxMutex

	handover := make(chan struct{})
	released := make(chan struct{})

	go func() {
		su.LockDisowned()
		close(handover)
	}()

	go func() {
		<-handover
		su.SetOwner(CurrentThreadID())
		if !su.HoldingX() {
			t.Error("adopter does not hold X after SetOwner")
		}
		su.Unlock()
		close(released)
	}()

	<-released
	if su.IsLockedOrWaiting() {
		t.Error("lock still held after the adopter released it")
	}
	if su.owner.Load() != uint64(NoThread) {
		t.Error("owner survived the release")
	}
}

// Update-mode disowned acquisition: taken in one goroutine, adopted and
// released in another, with shared readers still admitted in between.
func TestRecursiveSuxMutex_UpdateDisowned(t *testing.T) {
	var su RecursiveSuxMutex

	handover := make(chan struct{})
	released := make(chan struct{})

	go func() {
		su.LockUpdateDisowned()
		close(handover)
	}()

	go func() {
		<-handover
		// U mode coexists with shared holders even while disowned.
		if !su.TryLockShared() {
			t.Error("shared rejected under a disowned update lock")
		} else {
			su.UnlockShared()
		}
		su.SetOwner(CurrentThreadID())
		if !su.HoldingU() {
			t.Error("adopter does not hold U after SetOwner")
		}
		su.LockUpdate() // re-entry must recurse, not block on the gate
		su.UnlockUpdate()
		su.UnlockUpdate()
		close(released)
	}()

	<-released
	if su.IsLockedOrWaiting() {
		t.Error("lock still held after the adopter released it")
	}
	if su.owner.Load() != uint64(NoThread) || su.recursive != 0 {
		t.Error("owner or recursion count survived the release")
	}

	// TryLockUpdateDisowned takes a free lock and refuses a held one.
	if !su.TryLockUpdateDisowned() {
		t.Fatal("TryLockUpdateDisowned failed on a free lock")
	}
	if su.TryLockUpdateDisowned() {
		t.Error("two disowned update holders")
	}
	su.SetOwner(CurrentThreadID())
	su.UnlockUpdate()

	if su.IsLockedOrWaiting() {
		t.Error("lock not clean")
	}
}

// The recursive lock must keep the SuxMutex guarantees under the usual
// stress mix, with recursive re-entry of X and U in every round.
func TestRecursiveSuxMutex_Stress(t *testing.T) {
	const workers = 30
	const rounds = 100
	const inner = 10

	var su RecursiveSuxMutex
	var critical atomic.Bool

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for range rounds {
				su.Lock()
				if critical.Swap(true) {
					t.Error("X section not exclusive")
				}
				for range inner {
					su.Lock()
				}
				for range inner {
					su.Unlock()
				}
				if !critical.Load() {
					t.Error("flag clobbered inside the X section")
				}
				critical.Store(false)
				su.Unlock()

				for range inner {
					su.LockShared()
					if critical.Load() {
						t.Error("S section overlaps X section")
					}
					su.UnlockShared()
				}

				for range inner {
					su.LockUpdate()
					if critical.Load() {
						t.Error("U section overlaps X section")
					}
					su.LockUpdate()
					su.UpdateLockUpgrade()
					if critical.Swap(true) {
						t.Error("upgraded section not exclusive")
					}
					su.Unlock()
					if !critical.Load() {
						t.Error("flag clobbered inside the upgraded section")
					}
					critical.Store(false)
					su.LockUpdateDowngrade()
					su.UnlockUpdate()
				}
			}
			return nil
		})
	}
	g.Wait()

	if su.IsLockedOrWaiting() {
		t.Error("lock not clean after all workers joined")
	}
}
