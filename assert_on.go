//go:build race || atomicsync_assert

package atomicsync

const assertEnabled = true

// assert panics on misuse of a primitive (unlocking an unheld mutex,
// recursion overflow, ownership transfer by a non-owner). Enabled under the
// race detector and the atomicsync_assert build tag; release builds compile
// assertions away and misuse is undefined behaviour.
func assert(cond bool) {
	if !cond {
		panic("atomicsync: assertion failed")
	}
}
