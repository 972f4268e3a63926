package chip

// UART is the FE310 UART register block. Each method is a single access to
// one 32-bit register; loading RXDATA dequeues the receive FIFO.
type UART interface {
	TXDATA() TXDATA
	SetTXDATA(value TXDATA)
	RXDATA() RXDATA
	TXCTRL() TXCTRL
	SetTXCTRL(value TXCTRL)
	RXCTRL() RXCTRL
	SetRXCTRL(value RXCTRL)
	IE() IE
	SetIE(value IE)
	IP() IP
	DIV() DIV
	SetDIV(value DIV)
}

// TXDATA is the transmit data register (offset 0x00).
type TXDATA uint32

func (reg TXDATA) GetDATA() uint8 {
	return uint8(reg & 0xFF)
}

func (reg *TXDATA) SetDATA(value uint8) {
	*reg = (*reg &^ 0xFF) | TXDATA(value)
}

// GetFULL reports whether the transmit FIFO cannot accept another byte.
func (reg TXDATA) GetFULL() bool {
	return reg&(0x1<<31) != 0
}

func (reg *TXDATA) SetFULL(full bool) {
	if full {
		*reg |= 0x1 << 31
	} else {
		*reg &^= 0x1 << 31
	}
}

// RXDATA is the receive data register (offset 0x04).
type RXDATA uint32

const rxdataReserved RXDATA = 0x7FFFFF00

func (reg RXDATA) GetDATA() uint8 {
	return uint8(reg & 0xFF)
}

func (reg *RXDATA) SetDATA(value uint8) {
	*reg = (*reg &^ 0xFF) | RXDATA(value)
}

// GetEMPTY reports whether the receive FIFO had nothing to dequeue.
func (reg RXDATA) GetEMPTY() bool {
	return reg&(0x1<<31) != 0
}

func (reg *RXDATA) SetEMPTY(empty bool) {
	if empty {
		*reg |= 0x1 << 31
	} else {
		*reg &^= 0x1 << 31
	}
}

// GetRESERVED returns bits 30:8, which read as zero on a well-formed word.
func (reg RXDATA) GetRESERVED() uint32 {
	return uint32(reg&rxdataReserved) >> 8
}

func (reg *RXDATA) SetRESERVED(value uint32) {
	*reg = (*reg &^ rxdataReserved) | (RXDATA(value<<8) & rxdataReserved)
}

// TXCTRL is the transmit control register (offset 0x08).
type TXCTRL uint32

func (reg TXCTRL) GetTXEN() bool {
	return reg&0x1 != 0
}

func (reg *TXCTRL) SetTXEN(enable bool) {
	if enable {
		*reg |= 0x1
	} else {
		*reg &^= 0x1
	}
}

func (reg TXCTRL) GetNSTOP() uint8 {
	return uint8(reg>>1) & 0x1
}

func (reg *TXCTRL) SetNSTOP(value uint8) {
	*reg = (*reg &^ (0x1 << 1)) | TXCTRL(value&0x1)<<1
}

// GetTXCNT returns the transmit watermark level.
func (reg TXCTRL) GetTXCNT() uint8 {
	return uint8(reg>>16) & 0x7
}

func (reg *TXCTRL) SetTXCNT(value uint8) {
	*reg = (*reg &^ (0x7 << 16)) | TXCTRL(value&0x7)<<16
}

// RXCTRL is the receive control register (offset 0x0C).
type RXCTRL uint32

func (reg RXCTRL) GetRXEN() bool {
	return reg&0x1 != 0
}

func (reg *RXCTRL) SetRXEN(enable bool) {
	if enable {
		*reg |= 0x1
	} else {
		*reg &^= 0x1
	}
}

// GetRXCNT returns the receive watermark level.
func (reg RXCTRL) GetRXCNT() uint8 {
	return uint8(reg>>16) & 0x7
}

func (reg *RXCTRL) SetRXCNT(value uint8) {
	*reg = (*reg &^ (0x7 << 16)) | RXCTRL(value&0x7)<<16
}

// IE is the interrupt enable register (offset 0x10).
type IE uint32

func (reg IE) GetTXWM() bool {
	return reg&0x1 != 0
}

func (reg *IE) SetTXWM(enable bool) {
	if enable {
		*reg |= 0x1
	} else {
		*reg &^= 0x1
	}
}

func (reg IE) GetRXWM() bool {
	return reg&(0x1<<1) != 0
}

func (reg *IE) SetRXWM(enable bool) {
	if enable {
		*reg |= 0x1 << 1
	} else {
		*reg &^= 0x1 << 1
	}
}

// IP is the read-only interrupt pending register (offset 0x14). Both bits are
// levels: TXWM while the transmit FIFO holds fewer than TXCNT entries, RXWM
// while the receive FIFO holds more than RXCNT entries.
type IP uint32

func (reg IP) GetTXWM() bool {
	return reg&0x1 != 0
}

func (reg *IP) SetTXWM(pending bool) {
	if pending {
		*reg |= 0x1
	} else {
		*reg &^= 0x1
	}
}

func (reg IP) GetRXWM() bool {
	return reg&(0x1<<1) != 0
}

func (reg *IP) SetRXWM(pending bool) {
	if pending {
		*reg |= 0x1 << 1
	} else {
		*reg &^= 0x1 << 1
	}
}

// DIV is the baud rate divisor register (offset 0x18).
type DIV uint32

func (reg DIV) GetDIV() uint16 {
	return uint16(reg & 0xFFFF)
}

func (reg *DIV) SetDIV(value uint16) {
	*reg = (*reg &^ 0xFFFF) | DIV(value)
}
