// Package waker bridges an interrupt handler to the one task waiting on it.
//
// A Cell holds at most one wake function and buffers nothing: a Wake with
// nothing registered is lost. Waiters must therefore register first, then
// re-check the condition they wait for, and only then suspend. An interrupt
// that lands anywhere after the registration still reaches them.
package waker

import "omibyte.io/e310/critical"

// Cell is a single-slot wake registration shared with interrupt context.
type Cell struct {
	slot critical.Mutex[func()]
}

// Register stores wake, replacing whatever was registered before. Task
// context only.
func (c *Cell) Register(wake func()) {
	c.slot.Lock(func(w *func()) {
		*w = wake
	})
}

// Wake takes the registered function, if any, and calls it. Interrupt
// context only: cs is the section the handler runs in.
func (c *Cell) Wake(cs critical.Token) {
	w := c.slot.Borrow(cs)
	wake := *w
	*w = nil
	if wake != nil {
		wake()
	}
}

// Registered reports whether a wake function is waiting to be called.
func (c *Cell) Registered() (ok bool) {
	c.slot.Lock(func(w *func()) {
		ok = *w != nil
	})
	return
}

// Signal returns a wake function for a task that suspends by receiving from
// ch. ch must have a buffer of one; a wake that finds it full is coalesced.
func Signal(ch chan struct{}) func() {
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
