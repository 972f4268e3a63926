// Package critical provides the only mutual-exclusion primitive shared by
// task code and interrupt handlers: a scope in which interrupts are masked.
package critical

// Token proves that the holder is executing inside a critical section. It is
// only handed out by With and by the interrupt dispatcher, so a function that
// takes a Token cannot be called with interrupts unmasked.
type Token struct {
	_ [0]func()
}

// With masks interrupts, runs f and restores the previous interrupt state.
// Sections do not nest; code that already holds a Token must pass it down
// instead of calling With again.
func With(f func(cs Token)) {
	state := disable()
	defer restore(state)
	f(Token{})
}

// Acquire masks interrupts and returns a release function. It exists for the
// interrupt dispatcher, which needs to hold the section across a handler it
// does not own.
func Acquire() (Token, func()) {
	state := disable()
	return Token{}, func() {
		restore(state)
	}
}

// Mutex holds a value that is shared between task and interrupt context.
// The value is only reachable through a Token.
type Mutex[T any] struct {
	value T
}

// NewMutex wraps value.
func NewMutex[T any](value T) *Mutex[T] {
	return &Mutex[T]{value: value}
}

// Borrow returns the protected value for the lifetime of the section cs
// belongs to. The pointer must not escape the section.
func (m *Mutex[T]) Borrow(cs Token) *T {
	return &m.value
}

// Lock opens a section and passes the protected value to f.
func (m *Mutex[T]) Lock(f func(v *T)) {
	With(func(cs Token) {
		f(m.Borrow(cs))
	})
}
