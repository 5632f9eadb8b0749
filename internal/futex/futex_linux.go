//go:build linux && !atomicsync_no_futex

package futex

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	futexWait        = 0
	futexWake        = 1
	futexPrivateFlag = 128

	futexWaitPrivate = futexWait | futexPrivateFlag
	futexWakePrivate = futexWake | futexPrivateFlag

	wakeOne = 1
	wakeAll = 1<<31 - 1
)

// Wait sleeps while the word equals cmp. EAGAIN (the word changed before the
// kernel could queue us) and EINTR both surface as an ordinary return; the
// caller's retest loop handles them.
func (f *Futex) Wait(cmp uint32) {
	unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&f.Uint32)),
		futexWaitPrivate, uintptr(cmp), 0, 0, 0)
}

// Wake wakes at most one waiter sleeping on the word.
func (f *Futex) Wake() {
	unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&f.Uint32)),
		futexWakePrivate, wakeOne, 0, 0, 0)
}

// WakeAll wakes every waiter sleeping on the word.
func (f *Futex) WakeAll() {
	unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&f.Uint32)),
		futexWakePrivate, wakeAll, 0, 0, 0)
}
