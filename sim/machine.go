// Package sim is a host model of the FE310 pieces the drivers touch: the
// CLINT timer, UART0 with its FIFOs and the PLIC. Tests and the e310sim tool
// drive it by advancing time and feeding bytes; the drivers see it only
// through the chip register contracts.
package sim

import (
	"sync"

	"omibyte.io/e310/chip"
	"omibyte.io/e310/interrupt"
)

const fifoDepth = 8

type Machine struct {
	plic *PLIC

	mu       sync.Mutex
	taken    bool
	mtime    uint64
	mtimecmp uint64
	mtie     bool

	matched   bool
	matchCmp  uint64
	servicing bool
	serviceAt uint64
	latency   []float64

	rx      fifo[chip.RXDATA]
	tx      fifo[byte]
	out     []byte
	stall   bool
	dropped int
	ie      chip.IE
	txctrl  chip.TXCTRL
	rxctrl  chip.RXCTRL
	div     chip.DIV

	beforeIP func()
	afterIP  func(chip.IP)
}

// New powers up a machine. mtimecmp resets to its maximum so the timer does
// not match until it is programmed.
func New() *Machine {
	m := &Machine{
		mtimecmp: ^uint64(0),
		rx:       newFIFO[chip.RXDATA](fifoDepth),
		tx:       newFIFO[byte](fifoDepth),
	}
	m.plic = newPLIC(m.entering, m.serviced)
	return m
}

// Close stops the interrupt dispatcher.
func (m *Machine) Close() {
	m.plic.close()
}

// Peripherals hands out the register blocks. Only the first call succeeds.
func (m *Machine) Peripherals() (chip.Peripherals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken {
		return chip.Peripherals{}, chip.ErrPeripheralsTaken
	}
	m.taken = true
	return chip.Peripherals{
		CLINT: clint{m},
		UART0: uart{m},
		PLIC:  m.plic,
	}, nil
}

func (m *Machine) PLIC() *PLIC {
	return m.plic
}

// WaitIdle blocks until every pending deliverable interrupt has been handled.
func (m *Machine) WaitIdle() {
	m.plic.WaitIdle()
}

// update samples every interrupt level. m.mu must be held.
func (m *Machine) update() {
	if m.mtie && m.mtime >= m.mtimecmp {
		if !m.matched {
			m.matched = true
			m.matchCmp = m.mtimecmp
		}
		m.plic.Raise(chip.MachineTimer)
	} else {
		m.matched = false
		m.plic.Lower(chip.MachineTimer)
	}

	rxLevel := m.rx.Len() > int(m.rxctrl.GetRXCNT())
	txLevel := m.tx.Len() < int(m.txctrl.GetTXCNT())
	if (m.ie.GetRXWM() && rxLevel) || (m.ie.GetTXWM() && txLevel) {
		m.plic.Raise(chip.SourceUART0)
	}
}

func (m *Machine) entering(src interrupt.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if src == chip.MachineTimer && m.matched {
		m.servicing = true
		m.serviceAt = m.matchCmp
	}
}

func (m *Machine) serviced(src interrupt.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if src == chip.MachineTimer && m.servicing {
		m.latency = append(m.latency, float64(m.mtime-m.serviceAt))
		m.servicing = false
	}
	m.update()
}
