package chip

// Hz is a frequency in hertz.
type Hz uint32

// Bps is a serial line rate in bits per second.
type Bps uint32

// Clocks is the frozen clock configuration the peripheral drivers divide
// down from. The clock tree itself is set up by the boot code.
type Clocks struct {
	coreclk Hz
	tlclk   Hz
}

func NewClocks(coreclk, tlclk Hz) Clocks {
	return Clocks{coreclk: coreclk, tlclk: tlclk}
}

func (c Clocks) CoreClk() Hz {
	return c.coreclk
}

// TLClk is the TileLink bus clock feeding the UARTs.
func (c Clocks) TLClk() Hz {
	return c.tlclk
}
