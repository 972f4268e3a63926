// Package stdout is the board's diagnostic console: a process-wide sink on
// the transmit half of a polling UART. Until Configure is called every write
// is dropped.
package stdout

import (
	"errors"
	"fmt"
	"io"

	"omibyte.io/e310/chip"
	"omibyte.io/e310/critical"
	"omibyte.io/e310/uart"
)

var sink = critical.NewMutex[*uart.Tx](nil)

// Configure installs tx as the console. Passing nil detaches it.
func Configure(tx *uart.Tx) {
	sink.Lock(func(v **uart.Tx) {
		*v = tx
	})
}

// Open builds a polling UART on regs, installs its transmit half as the
// console and hands back the receive half.
func Open(regs chip.UART, config uart.Config) (*uart.Rx, error) {
	serial, err := uart.New(regs, config)
	if err != nil {
		return nil, err
	}
	tx, rx := serial.Split()
	Configure(tx)
	return rx, nil
}

func Print(s string) {
	_, _ = write(s)
}

func Println(s string) {
	_, _ = write(s + "\n")
}

func Printf(format string, args ...any) {
	_, _ = write(fmt.Sprintf(format, args...))
}

// Writer returns an io.Writer on the console, for use with fmt.Fprintf or
// log.New.
func Writer() io.Writer {
	return writer{}
}

type writer struct{}

func (writer) Write(p []byte) (int, error) {
	return write(string(p))
}

// write sends s with every "\n" expanded to "\r\n", spinning on a full FIFO.
// The whole string goes out inside one section so concurrent prints do not
// interleave.
func write(s string) (n int, err error) {
	critical.With(func(cs critical.Token) {
		tx := *sink.Borrow(cs)
		if tx == nil {
			n = len(s)
			return
		}
		for i := 0; i < len(s); i++ {
			if s[i] == '\n' {
				if err = put(tx, '\r'); err != nil {
					return
				}
			}
			if err = put(tx, s[i]); err != nil {
				return
			}
			n++
		}
	})
	return
}

func put(tx *uart.Tx, b byte) error {
	for {
		err := tx.Write(b)
		if !errors.Is(err, uart.ErrWouldBlock) {
			return err
		}
	}
}
