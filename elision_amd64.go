//go:build amd64

package atomicsync

import (
	"golang.org/x/sys/cpu"
)

// haveTM reports whether Restricted Transactional Memory is available on
// this CPU (CPUID leaf 7, EBX bit 11). Captured once at startup.
var haveTM = cpu.X86.HasRTM

// xbeginStartedStatus is the status xbegin reports when the transaction
// has begun, mirroring _XBEGIN_STARTED.
const xbeginStartedStatus = 0xffffffff

// Implemented in elision_amd64.s.

// xbegin starts a transaction and returns xbeginStartedStatus, or returns
// the abort status after the transaction aborted.
func xbegin() uint32

// xend commits the current transaction.
func xend()

// xabort aborts the current transaction; execution resumes at the xbegin
// fallback with an abort status.
func xabort()
