//go:build !tinygo

package critical

import "sync"

// On the host there is no interrupt mask. A single lock stands in for it and
// the simulated interrupt dispatcher takes the same lock before it runs a
// handler, so handlers and sections exclude each other exactly as they would
// on a single hart with MIE cleared.
var mask sync.Mutex

type state struct{}

func disable() state {
	mask.Lock()
	return state{}
}

func restore(state) {
	mask.Unlock()
}
