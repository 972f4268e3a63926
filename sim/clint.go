package sim

import "omibyte.io/e310/chip"

// clint implements chip.CLINT on top of the machine state.
type clint struct {
	m *Machine
}

func (c clint) MTIME() uint64 {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.m.mtime
}

func (c clint) MTIMECMP() uint64 {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.m.mtimecmp
}

func (c clint) SetMTIMECMP(value uint64) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.mtimecmp = value
	c.m.matched = false
	c.m.update()
}

func (c clint) MTIE() bool {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.m.mtie
}

func (c clint) SetMTIE(enable bool) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.mtie = enable
	c.m.update()
}

// Now returns mtime.
func (m *Machine) Now() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mtime
}

// MTIMECMP returns the comparator without going through the ownership token.
func (m *Machine) MTIMECMP() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mtimecmp
}

// MTIE reports the machine timer interrupt enable.
func (m *Machine) MTIE() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mtie
}

// Advance runs mtime forward by ticks. Every comparator match on the way is
// serviced before time moves past it, so a periodic handler sees each period.
func (m *Machine) Advance(ticks uint64) {
	m.mu.Lock()
	target := m.mtime + ticks
	m.mu.Unlock()

	for {
		m.mu.Lock()
		if m.mtime >= target {
			m.mu.Unlock()
			return
		}
		next := target
		if m.mtie && m.mtimecmp > m.mtime && m.mtimecmp < target && m.plic.Deliverable(chip.MachineTimer) {
			next = m.mtimecmp
		}
		m.mtime = next
		m.update()
		m.mu.Unlock()

		m.plic.WaitIdle()
	}
}
