package interrupt

import "omibyte.io/e310/critical"

// Source identifies an interrupt line. Values below CoreBase are PLIC global
// interrupt sources; values from CoreBase up are hart-local interrupts
// numbered by their mcause code.
type Source int16

// Priority is a PLIC priority level. P0 never interrupts.
type Priority uint8

const (
	P0 Priority = iota
	P1
	P2
	P3
	P4
	P5
	P6
	P7
)

const CoreBase Source = 0x400

// Core returns the Source of the hart-local interrupt with the given mcause
// code.
func Core(code int16) Source {
	return CoreBase + Source(code)
}

// IsCore reports whether s is a hart-local interrupt.
func (s Source) IsCore() bool {
	return s >= CoreBase
}

// Handler runs in interrupt context. It is always entered with interrupts
// masked and must not block.
type Handler func(cs critical.Token)

// Controller is the platform interrupt controller: the PLIC for external
// sources plus the hart's own enable bits for core sources.
type Controller interface {
	Handle(src Source, handler Handler)
	Enable(src Source)
	Disable(src Source)
	SetPriority(src Source, priority Priority)
	SetThreshold(priority Priority)
	ClearPending(src Source)
	EnableGlobal()
}

// Interrupt binds one source to its controller.
type Interrupt struct {
	Source     Source
	Controller Controller
}

func New(src Source, ctrl Controller, handler Handler) Interrupt {
	ctrl.Handle(src, handler)
	return Interrupt{Source: src, Controller: ctrl}
}

func (i Interrupt) EnableIRQ() {
	i.Controller.Enable(i.Source)
}

func (i Interrupt) DisableIRQ() {
	i.Controller.Disable(i.Source)
}

func (i Interrupt) SetPriority(priority Priority) {
	i.Controller.SetPriority(i.Source, priority)
}

func (i Interrupt) ClearPending() {
	i.Controller.ClearPending(i.Source)
}
