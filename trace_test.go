//go:build atomicsync_trace

package atomicsync

import (
	"testing"
	"unsafe"
)

func TestTrace_CountsLockEvents(t *testing.T) {
	var m Mutex
	const rounds = 10

	for range rounds {
		m.Lock()
		m.Unlock()
	}

	addr := uintptr(unsafe.Pointer(&m.state))
	found := false
	traceRange(func(a uintptr, c *traceCounts) bool {
		if a != addr {
			return true
		}
		found = true
		if c.preLock.Load() < rounds || c.postLock.Load() < rounds {
			t.Errorf("lock events %d/%d, want at least %d",
				c.preLock.Load(), c.postLock.Load(), rounds)
		}
		if c.preUnlock.Load() < rounds || c.postUnlock.Load() < rounds {
			t.Errorf("unlock events %d/%d, want at least %d",
				c.preUnlock.Load(), c.postUnlock.Load(), rounds)
		}
		return false
	})
	if !found {
		t.Error("no events recorded for the mutex state word")
	}
}

func TestTrace_CountsSignalEvents(t *testing.T) {
	var cv CondVar

	cv.Signal()
	cv.Broadcast()

	addr := uintptr(unsafe.Pointer(&cv.waiters))
	found := false
	traceRange(func(a uintptr, c *traceCounts) bool {
		if a != addr {
			return true
		}
		found = true
		if c.preSignal.Load() < 2 || c.postSignal.Load() < 2 {
			t.Errorf("signal events %d/%d, want at least 2",
				c.preSignal.Load(), c.postSignal.Load())
		}
		return false
	})
	if !found {
		t.Error("no events recorded for the condvar word")
	}
}
