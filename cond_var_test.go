package atomicsync

import (
	"testing"
	"time"

	"github.com/llxisdsh/pb"
	"golang.org/x/sync/errgroup"
)

func TestCondVar_IsWaiting(t *testing.T) {
	var m Mutex
	var cv CondVar
	ready := false

	if cv.IsWaiting() {
		t.Fatal("fresh condvar reports waiters")
	}

	done := make(chan struct{})
	go func() {
		m.Lock()
		for !ready {
			cv.Wait(&m)
		}
		m.Unlock()
		close(done)
	}()

	for !cv.IsWaiting() {
		time.Sleep(time.Millisecond)
	}

	m.Lock()
	ready = true
	m.Unlock()
	cv.Signal()
	<-done

	if cv.IsWaiting() {
		t.Error("waiter count left behind after the waiter returned")
	}
}

// 30 waiters released by one broadcast.
func TestCondVar_Broadcast(t *testing.T) {
	const waiters = 30

	var m Mutex
	var cv CondVar
	critical := false

	var g errgroup.Group
	for range waiters {
		g.Go(func() error {
			m.Lock()
			for !critical {
				cv.Wait(&m)
			}
			m.Unlock()
			return nil
		})
	}

	time.Sleep(10 * time.Millisecond) // let the waiters block

	m.Lock()
	critical = true
	isWaiting := cv.IsWaiting()
	m.Unlock()
	if !isWaiting {
		t.Error("no waiter registered before the broadcast")
	}
	cv.Broadcast()
	g.Wait()

	if cv.IsWaiting() {
		t.Error("waiter count left behind after all waiters returned")
	}
}

// 30 waiters released one signal at a time; every waiter must return
// exactly once, tracked per waiter in a concurrent map.
func TestCondVar_SignalOneByOne(t *testing.T) {
	const waiters = 30

	var m Mutex
	var cv CondVar
	pending := 0
	var wakes pb.MapOf[int, int]

	var g errgroup.Group
	for i := range waiters {
		g.Go(func() error {
			m.Lock()
			for pending == 0 {
				cv.Wait(&m)
			}
			pending--
			m.Unlock()
			wakes.ProcessEntry(i,
				func(l *pb.EntryOf[int, int]) (*pb.EntryOf[int, int], int, bool) {
					if l != nil {
						return &pb.EntryOf[int, int]{Value: l.Value + 1}, l.Value + 1, true
					}
					return &pb.EntryOf[int, int]{Value: 1}, 1, false
				})
			return nil
		})
	}

	for range waiters {
		m.Lock()
		pending++
		m.Unlock()
		cv.Signal()
		time.Sleep(time.Millisecond)
	}
	g.Wait()

	if pending != 0 {
		t.Errorf("%d signals unconsumed", pending)
	}
	seen := 0
	wakes.Range(func(i, n int) bool {
		seen++
		if n != 1 {
			t.Errorf("waiter %d returned %d times", i, n)
		}
		return true
	})
	if seen != waiters {
		t.Errorf("%d of %d waiters accounted for", seen, waiters)
	}
	if cv.IsWaiting() {
		t.Error("waiter count left behind")
	}
}

func TestCondVar_WaitShared(t *testing.T) {
	const waiters = 10

	var su SuxMutex
	var cv CondVar
	critical := false

	var g errgroup.Group
	for range waiters {
		g.Go(func() error {
			su.LockShared()
			for !critical {
				cv.WaitShared(&su)
			}
			su.UnlockShared()
			return nil
		})
	}

	time.Sleep(10 * time.Millisecond)

	su.Lock()
	critical = true
	su.Unlock()
	cv.Broadcast()
	g.Wait()

	if cv.IsWaiting() || su.IsLockedOrWaiting() {
		t.Error("condvar or lock not clean")
	}
}

func TestCondVar_WaitUpdate(t *testing.T) {
	var su SuxMutex
	var cv CondVar
	critical := false

	done := make(chan struct{})
	go func() {
		su.LockUpdate()
		for !critical {
			cv.WaitUpdate(&su)
		}
		su.UnlockUpdate()
		close(done)
	}()

	for !cv.IsWaiting() {
		time.Sleep(time.Millisecond)
	}

	// An update waiter holds no mode while sleeping, so X is available.
	su.Lock()
	critical = true
	su.Unlock()
	cv.Signal()
	<-done

	if cv.IsWaiting() || su.IsLockedOrWaiting() {
		t.Error("condvar or lock not clean")
	}
}
