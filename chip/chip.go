// Package chip describes the FE310 peripherals used by the drivers: register
// layouts, interrupt numbers, pins and the ownership token that hands each
// register block out exactly once.
package chip

import (
	"errors"

	"omibyte.io/e310/interrupt"
)

var ErrPeripheralsTaken = errors.New("peripherals already taken")

const (
	SourceUART0 interrupt.Source = 3
	SourceUART1 interrupt.Source = 4
)

// MachineTimer is the hart-local machine timer interrupt.
var MachineTimer = interrupt.Core(MachineTimerCode)

// Pin is a GPIO0 pin number.
type Pin uint8

const (
	UART0RX Pin = 16
	UART0TX Pin = 17
	LEDRed  Pin = 22
	LEDGrn  Pin = 19
	LEDBlu  Pin = 21
)

// Peripherals owns every register block the drivers need. Whoever holds it
// passes the individual blocks to the drivers that use them; the struct is
// never copied out a second time.
type Peripherals struct {
	CLINT CLINT
	UART0 UART
	PLIC  interrupt.Controller
}
