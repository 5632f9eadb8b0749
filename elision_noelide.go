//go:build !amd64

package atomicsync

// Transactional memory has not been implemented for this architecture;
// the guards always take the lock.
const haveTM = false

const xbeginStartedStatus = 0xffffffff

func xbegin() uint32 { return 0 }
func xend()          {}
func xabort()        {}
