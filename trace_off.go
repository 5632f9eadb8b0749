//go:build !atomicsync_trace

package atomicsync

import (
	"github.com/dr-m/atomic-sync/internal/futex"
)

const traceEnabled = false

func tracePreLock(*futex.Futex)    {}
func tracePostLock(*futex.Futex)   {}
func tracePreUnlock(*futex.Futex)  {}
func tracePostUnlock(*futex.Futex) {}
func tracePreSignal(*futex.Futex)  {}
func tracePostSignal(*futex.Futex) {}
