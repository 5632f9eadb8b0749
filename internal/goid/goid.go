// Package goid resolves the id of the calling goroutine.
package goid

import (
	"runtime"
)

// ID returns the numeric id of the calling goroutine, as printed in
// runtime.Stack traces. Ids start at 1 and are never reused, so 0 is free
// to serve as a "no goroutine" sentinel.
//
// The id is parsed out of the stack trace header because the runtime does
// not expose it through a supported API. This costs about a microsecond,
// which is acceptable on the lock slow paths that need an owner identity.
func ID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// The header looks like "goroutine 123 [running]:".
	var id uint64
	for _, c := range buf[len("goroutine "):n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
