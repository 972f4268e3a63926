package uart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omibyte.io/e310/chip"
	"omibyte.io/e310/sim"
)

var testClocks = chip.NewClocks(16_000_000, 16_000_000)

func testConfig() Config {
	return Config{
		TXD:    chip.UART0TX,
		RXD:    chip.UART0RX,
		Baud:   115_200,
		Clocks: testClocks,
	}
}

func newMachine(t *testing.T) (*sim.Machine, chip.Peripherals) {
	t.Helper()
	m := sim.New()
	t.Cleanup(m.Close)

	p, err := m.Peripherals()
	require.NoError(t, err)
	return m, p
}

func TestNewProgramsDivisor(t *testing.T) {
	m, p := newMachine(t)

	_, err := New(p.UART0, testConfig())
	require.NoError(t, err)

	assert.Equal(t, uint16(137), m.UARTDIV().GetDIV())
	assert.Equal(t, chip.IE(0), m.UARTIE())
}

func TestNewRejectsConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"swapped pins", func(c *Config) { c.TXD, c.RXD = c.RXD, c.TXD }, ErrInvalidPinout},
		{"led pin", func(c *Config) { c.TXD = chip.LEDRed }, ErrInvalidPinout},
		{"zero baud", func(c *Config) { c.Baud = 0 }, ErrInvalidConfig},
		{"baud above clock", func(c *Config) { c.Baud = 32_000_000 }, ErrInvalidConfig},
		{"divisor overflow", func(c *Config) { c.Baud = 100 }, ErrInvalidConfig},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, p := newMachine(t)
			config := testConfig()
			tc.modify(&config)

			_, err := New(p.UART0, config)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRead(t *testing.T) {
	m, p := newMachine(t)
	s, err := New(p.UART0, testConfig())
	require.NoError(t, err)

	m.Feed(0x41)

	b, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, byte(0x41), b)

	_, err = s.Read()
	assert.ErrorIs(t, err, ErrWouldBlock)
}

func TestReadPeripheralError(t *testing.T) {
	m, p := newMachine(t)
	s, err := New(p.UART0, testConfig())
	require.NoError(t, err)

	m.FeedError(0x7f)
	m.Feed(0x42)

	_, err = s.Read()
	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, ErrorKindOther, uerr.Kind)
	assert.EqualError(t, err, "uart other error")

	b, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), b)
}

func TestWrite(t *testing.T) {
	m, p := newMachine(t)
	s, err := New(p.UART0, testConfig())
	require.NoError(t, err)

	for _, b := range []byte("ok") {
		require.NoError(t, s.Write(b))
	}
	assert.Equal(t, []byte("ok"), m.Output())
	assert.NoError(t, s.Flush())
}

func TestWriteFullFIFO(t *testing.T) {
	m, p := newMachine(t)
	s, err := New(p.UART0, testConfig())
	require.NoError(t, err)

	m.StallTx(true)
	for i := 0; i < 8; i++ {
		require.NoError(t, s.Write(byte('0'+i)))
	}
	assert.Equal(t, 8, m.TxQueued())
	assert.ErrorIs(t, s.Flush(), ErrWouldBlock)

	assert.ErrorIs(t, s.Write('x'), ErrWouldBlock)
	assert.Equal(t, 8, m.TxQueued())

	m.StallTx(false)
	assert.Equal(t, []byte("01234567"), m.Output())
	assert.NoError(t, s.Flush())
	assert.NoError(t, s.Write('x'))
}

func TestSplitAndFree(t *testing.T) {
	m, p := newMachine(t)
	s, err := New(p.UART0, testConfig())
	require.NoError(t, err)

	tx, rx := s.Split()
	require.NoError(t, tx.Write('a'))
	m.Feed('b')
	b, err := rx.Read()
	require.NoError(t, err)
	assert.Equal(t, byte('b'), b)
	assert.Equal(t, []byte("a"), m.Output())

	regs, pins := s.Free()
	assert.Equal(t, p.UART0, regs)
	assert.Equal(t, Pins{TXD: chip.UART0TX, RXD: chip.UART0RX}, pins)
}
