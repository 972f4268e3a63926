package sim

import "omibyte.io/e310/chip"

// uart implements chip.UART. The transmit FIFO drains to the line as soon as
// a byte is written unless the line is stalled.
type uart struct {
	m *Machine
}

func (u uart) TXDATA() chip.TXDATA {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	var reg chip.TXDATA
	reg.SetFULL(u.m.tx.Full())
	return reg
}

func (u uart) SetTXDATA(value chip.TXDATA) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if !u.m.tx.Push(value.GetDATA()) {
		// Writes to a full FIFO are ignored by the hardware.
		return
	}
	if !u.m.stall {
		u.m.drain()
	}
	u.m.update()
}

func (u uart) RXDATA() chip.RXDATA {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	reg, ok := u.m.rx.Pop()
	if !ok {
		reg.SetEMPTY(true)
		return reg
	}
	u.m.update()
	return reg
}

func (u uart) TXCTRL() chip.TXCTRL {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	return u.m.txctrl
}

func (u uart) SetTXCTRL(value chip.TXCTRL) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	u.m.txctrl = value
	u.m.update()
}

func (u uart) RXCTRL() chip.RXCTRL {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	return u.m.rxctrl
}

func (u uart) SetRXCTRL(value chip.RXCTRL) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	u.m.rxctrl = value
	u.m.update()
}

func (u uart) IE() chip.IE {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	return u.m.ie
}

func (u uart) SetIE(value chip.IE) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	u.m.ie = value
	u.m.update()
}

func (u uart) IP() chip.IP {
	u.m.mu.Lock()
	before := u.m.beforeIP
	u.m.mu.Unlock()
	if before != nil {
		before()
	}

	u.m.mu.Lock()
	var reg chip.IP
	reg.SetRXWM(u.m.rx.Len() > int(u.m.rxctrl.GetRXCNT()))
	reg.SetTXWM(u.m.tx.Len() < int(u.m.txctrl.GetTXCNT()))
	after := u.m.afterIP
	u.m.mu.Unlock()

	if after != nil {
		after(reg)
	}
	return reg
}

func (u uart) DIV() chip.DIV {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	return u.m.div
}

func (u uart) SetDIV(value chip.DIV) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	u.m.div = value
}

// drain moves the transmit FIFO onto the line. m.mu must be held.
func (m *Machine) drain() {
	if !m.txctrl.GetTXEN() {
		return
	}
	m.out = m.tx.Drain(m.out)
}

// Feed puts b on the receive line. A byte arriving at a full FIFO is lost.
func (m *Machine) Feed(b ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range b {
		var reg chip.RXDATA
		reg.SetDATA(v)
		m.push(reg)
	}
	m.update()
}

// FeedError queues a receive word with reserved bits set, as a corrupted
// frame would appear to the driver.
func (m *Machine) FeedError(b byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var reg chip.RXDATA
	reg.SetDATA(b)
	reg.SetRESERVED(0x1)
	m.push(reg)
	m.update()
}

func (m *Machine) push(reg chip.RXDATA) {
	if !m.rxctrl.GetRXEN() || !m.rx.Push(reg) {
		m.dropped++
	}
}

// Dropped returns the number of received bytes lost to a full FIFO or a
// disabled receiver.
func (m *Machine) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Output returns everything transmitted so far.
func (m *Machine) Output() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.out...)
}

// StallTx stops or resumes draining the transmit FIFO.
func (m *Machine) StallTx(stall bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stall = stall
	if !stall {
		m.drain()
	}
	m.update()
}

// TxQueued returns the number of bytes waiting in the transmit FIFO.
func (m *Machine) TxQueued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tx.Len()
}

// UARTIE returns the UART interrupt enable register.
func (m *Machine) UARTIE() chip.IE {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ie
}

// UARTDIV returns the programmed baud divisor.
func (m *Machine) UARTDIV() chip.DIV {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.div
}

// BeforeIPRead installs a hook that runs on every IP load before the register
// is sampled. Passing nil removes it.
func (m *Machine) BeforeIPRead(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beforeIP = hook
}

// AfterIPRead installs a hook that runs on every IP load with the value the
// driver is about to see.
func (m *Machine) AfterIPRead(hook func(chip.IP)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterIP = hook
}
