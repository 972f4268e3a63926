// Package uart drives the FE310 UART in two flavours: a polling Serial for
// code without a scheduler, and an AsyncSerial whose receive side suspends
// the calling task until the receive interrupt reports data.
package uart

import (
	"fmt"

	"omibyte.io/e310/chip"
	"omibyte.io/e310/interrupt"
)

type Config struct {
	TXD      chip.Pin
	RXD      chip.Pin
	Baud     chip.Bps
	Clocks   chip.Clocks
	Priority interrupt.Priority
}

// Pins is what Free hands back alongside the register block.
type Pins struct {
	TXD chip.Pin
	RXD chip.Pin
}

func (c Config) validate() (chip.DIV, error) {
	if c.TXD != chip.UART0TX || c.RXD != chip.UART0RX {
		return 0, fmt.Errorf("%w: tx=%d rx=%d", ErrInvalidPinout, c.TXD, c.RXD)
	}

	tlclk := c.Clocks.TLClk()
	if c.Baud == 0 || uint32(tlclk) < uint32(c.Baud) {
		return 0, fmt.Errorf("%w: %d bps from %d Hz", ErrInvalidConfig, c.Baud, tlclk)
	}

	div := uint32(tlclk)/uint32(c.Baud) - 1
	if div > 0xFFFF {
		return 0, fmt.Errorf("%w: divisor %d out of range", ErrInvalidConfig, div)
	}

	var reg chip.DIV
	reg.SetDIV(uint16(div))
	return reg, nil
}

// configure programs the divisor and enables both directions with a
// transmit watermark of one entry.
func configure(regs chip.UART, div chip.DIV) {
	regs.SetDIV(div)

	var txctrl chip.TXCTRL
	txctrl.SetTXCNT(1)
	txctrl.SetTXEN(true)
	regs.SetTXCTRL(txctrl)

	var rxctrl chip.RXCTRL
	rxctrl.SetRXEN(true)
	regs.SetRXCTRL(rxctrl)
}

// Serial is the polling UART. Every operation checks the hardware once and
// returns ErrWouldBlock if it cannot complete.
type Serial struct {
	regs chip.UART
	tx   *Tx
	rx   *Rx
}

// New takes ownership of regs and configures it for polling use with both
// interrupt sources disabled.
func New(regs chip.UART, config Config) (*Serial, error) {
	div, err := config.validate()
	if err != nil {
		return nil, err
	}

	regs.SetIE(0)
	configure(regs, div)

	return &Serial{
		regs: regs,
		tx:   &Tx{regs: regs, pin: config.TXD},
		rx:   &Rx{regs: regs, pin: config.RXD},
	}, nil
}

func (s *Serial) Read() (byte, error) {
	return s.rx.Read()
}

func (s *Serial) Write(b byte) error {
	return s.tx.Write(b)
}

func (s *Serial) Flush() error {
	return s.tx.Flush()
}

// Split separates the two directions so independent tasks can own them.
func (s *Serial) Split() (*Tx, *Rx) {
	return s.tx, s.rx
}

// Free releases the register block and pins.
func (s *Serial) Free() (chip.UART, Pins) {
	return s.regs, Pins{TXD: s.tx.pin, RXD: s.rx.pin}
}

// Tx is the transmit half. It only touches TXDATA and IP.TXWM.
type Tx struct {
	regs chip.UART
	pin  chip.Pin
}

// Write queues b unless the transmit FIFO is full, in which case TXDATA is
// left untouched and ErrWouldBlock is returned.
func (tx *Tx) Write(b byte) error {
	if tx.regs.TXDATA().GetFULL() {
		return ErrWouldBlock
	}

	var data chip.TXDATA
	data.SetDATA(b)
	tx.regs.SetTXDATA(data)
	return nil
}

// Flush reports whether the transmit FIFO has drained below its watermark.
func (tx *Tx) Flush() error {
	if tx.regs.IP().GetTXWM() {
		return nil
	}
	return ErrWouldBlock
}

// Rx is the receive half. It only touches RXDATA.
type Rx struct {
	regs chip.UART
	pin  chip.Pin
}

// Read dequeues one byte or returns ErrWouldBlock if the FIFO is empty.
func (rx *Rx) Read() (byte, error) {
	data := rx.regs.RXDATA()
	if data.GetEMPTY() {
		return 0, ErrWouldBlock
	}
	return decode(data)
}

// decode extracts the byte from a non-empty RXDATA word. Reserved bits read
// back as ones only when the word is corrupt.
func decode(data chip.RXDATA) (byte, error) {
	if data.GetRESERVED() != 0 {
		return 0, &Error{Kind: ErrorKindOther}
	}
	return data.GetDATA(), nil
}
