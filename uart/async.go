package uart

import (
	"context"

	"omibyte.io/e310/chip"
	"omibyte.io/e310/critical"
	"omibyte.io/e310/interrupt"
	"omibyte.io/e310/waker"
)

const DefaultPriority = interrupt.P1

// AsyncSerial is the interrupt-driven UART. Reads suspend the calling task;
// writes and flushes still only poll.
type AsyncSerial struct {
	regs     chip.UART
	irq      interrupt.Interrupt
	priority interrupt.Priority
	rxWaker  *waker.Cell
	tx       *AsyncTx
	rx       *AsyncRx
}

// NewAsync takes ownership of regs. The receive interrupt stays off until
// EnableInterrupts is called.
func NewAsync(regs chip.UART, plic interrupt.Controller, config Config) (*AsyncSerial, error) {
	div, err := config.validate()
	if err != nil {
		return nil, err
	}
	configure(regs, div)

	if config.Priority == interrupt.P0 {
		config.Priority = DefaultPriority
	}

	cell := &waker.Cell{}
	s := &AsyncSerial{
		regs:     regs,
		priority: config.Priority,
		rxWaker:  cell,
		tx:       &AsyncTx{Tx: Tx{regs: regs, pin: config.TXD}},
		rx: &AsyncRx{
			regs:  regs,
			pin:   config.RXD,
			waker: cell,
			ready: make(chan struct{}, 1),
		},
	}
	s.irq = interrupt.Interrupt{Source: chip.SourceUART0, Controller: plic}
	return s, nil
}

// EnableInterrupts routes the UART interrupt through the PLIC and unmasks the
// receive watermark interrupt. Call it once, before the first Read.
func (s *AsyncSerial) EnableInterrupts() {
	s.irq.ClearPending()

	var ie chip.IE
	ie.SetRXWM(true)
	s.regs.SetIE(ie)

	plic := s.irq.Controller
	plic.Handle(s.irq.Source, s.handleInterrupt)
	s.irq.SetPriority(s.priority)
	plic.SetThreshold(interrupt.P0)
	s.irq.EnableIRQ()
	plic.EnableGlobal()
}

// handleInterrupt acknowledges the source, masks the receive interrupt until
// a reader has drained the FIFO, and wakes that reader. It moves no data.
func (s *AsyncSerial) handleInterrupt(cs critical.Token) {
	s.irq.ClearPending()
	s.regs.SetIE(0)
	s.rxWaker.Wake(cs)
}

func (s *AsyncSerial) Read(ctx context.Context, buf []byte) error {
	return s.rx.Read(ctx, buf)
}

func (s *AsyncSerial) ReadByte(ctx context.Context) (byte, error) {
	return s.rx.ReadByte(ctx)
}

func (s *AsyncSerial) Write(ctx context.Context, b byte) error {
	return s.tx.Write(ctx, b)
}

func (s *AsyncSerial) Flush(ctx context.Context) error {
	return s.tx.Flush(ctx)
}

func (s *AsyncSerial) Split() (*AsyncTx, *AsyncRx) {
	return s.tx, s.rx
}

// Free masks the UART interrupt and releases the register block and pins.
func (s *AsyncSerial) Free() (chip.UART, Pins) {
	s.irq.DisableIRQ()
	s.regs.SetIE(0)
	return s.regs, Pins{TXD: s.tx.pin, RXD: s.rx.pin}
}

// AsyncTx is the transmit half of an AsyncSerial. It never suspends: a full
// FIFO is reported as ErrWouldBlock exactly as on the polling port.
type AsyncTx struct {
	Tx
}

func (tx *AsyncTx) Write(ctx context.Context, b byte) error {
	return tx.Tx.Write(b)
}

func (tx *AsyncTx) Flush(ctx context.Context) error {
	return tx.Tx.Flush()
}

// AsyncRx is the receive half of an AsyncSerial. At most one task may read
// from it at a time.
type AsyncRx struct {
	regs  chip.UART
	pin   chip.Pin
	waker *waker.Cell
	ready chan struct{}
}

// Read suspends until one byte has been received and stores it in buf[0].
// It returns early only if ctx ends; a timeout is built by the caller racing
// ctx against an alarm.
func (rx *AsyncRx) Read(ctx context.Context, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	b, err := rx.ReadByte(ctx)
	if err != nil {
		return err
	}
	buf[0] = b
	return nil
}

func (rx *AsyncRx) ReadByte(ctx context.Context) (byte, error) {
	wake := waker.Signal(rx.ready)
	for {
		// Register before looking at the hardware: an interrupt that fires
		// after this line is seen either by the check below or by the
		// receive on rx.ready.
		rx.waker.Register(wake)

		if rx.regs.IP().GetRXWM() {
			data := rx.regs.RXDATA()
			rx.listen()
			if !data.GetEMPTY() {
				return decode(data)
			}
		}

		select {
		case <-rx.ready:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// listen unmasks the receive interrupt the handler masked.
func (rx *AsyncRx) listen() {
	var ie chip.IE
	ie.SetTXWM(false)
	ie.SetRXWM(true)
	rx.regs.SetIE(ie)
}
