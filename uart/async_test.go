package uart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omibyte.io/e310/chip"
	"omibyte.io/e310/interrupt"
	"omibyte.io/e310/sim"
)

func newAsync(t *testing.T) (*sim.Machine, *AsyncSerial) {
	t.Helper()
	m, p := newMachine(t)
	s, err := NewAsync(p.UART0, p.PLIC, testConfig())
	require.NoError(t, err)
	s.EnableInterrupts()
	return m, s
}

func readAsync(ctx context.Context, rx *AsyncRx) (<-chan byte, <-chan error) {
	out := make(chan byte, 1)
	errs := make(chan error, 1)
	go func() {
		var buf [1]byte
		if err := rx.Read(ctx, buf[:]); err != nil {
			errs <- err
			return
		}
		out <- buf[0]
	}()
	return out, errs
}

func TestAsyncEnableInterrupts(t *testing.T) {
	m, p := newMachine(t)
	s, err := NewAsync(p.UART0, p.PLIC, testConfig())
	require.NoError(t, err)
	assert.False(t, m.PLIC().Deliverable(chip.SourceUART0))

	s.EnableInterrupts()
	assert.True(t, m.UARTIE().GetRXWM())
	assert.False(t, m.UARTIE().GetTXWM())
	assert.True(t, m.PLIC().Deliverable(chip.SourceUART0))
}

func TestAsyncReadSuspendsUntilData(t *testing.T) {
	m, s := newAsync(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, errs := readAsync(ctx, s.rx)
	require.Eventually(t, s.rxWaker.Registered, time.Second, time.Millisecond)

	select {
	case b := <-out:
		t.Fatalf("read returned %#x before any data arrived", b)
	default:
	}

	m.Feed(0x41)
	select {
	case b := <-out:
		assert.Equal(t, byte(0x41), b)
	case err := <-errs:
		t.Fatal(err)
	case <-ctx.Done():
		t.Fatal("read did not resume")
	}

	// The handler masked the interrupt; the read re-armed it.
	assert.True(t, m.UARTIE().GetRXWM())
	assert.False(t, m.PLIC().Pending(chip.SourceUART0))
}

func TestAsyncReadReturnsQueuedData(t *testing.T) {
	m, s := newAsync(t)
	ctx := context.Background()

	m.Feed('h', 'i')
	m.WaitIdle()

	b, err := s.ReadByte(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte('h'), b)

	b, err = s.ReadByte(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte('i'), b)
}

func TestAsyncReadEachByteAfterSuspending(t *testing.T) {
	m, s := newAsync(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// idle reports each time the reader finds the FIFO empty, just before
	// it suspends.
	idle := make(chan struct{}, 1)
	m.AfterIPRead(func(ip chip.IP) {
		if !ip.GetRXWM() {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	for _, want := range []byte("abc") {
		out, errs := readAsync(ctx, s.rx)
		select {
		case <-idle:
		case <-ctx.Done():
			t.Fatal("reader never checked the FIFO")
		}

		m.Feed(want)
		select {
		case b := <-out:
			assert.Equal(t, want, b)
		case err := <-errs:
			t.Fatal(err)
		case <-ctx.Done():
			t.Fatalf("read of %q did not resume", want)
		}
	}

	// Every byte was delivered exactly once.
	m.AfterIPRead(nil)
	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	_, err := s.ReadByte(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAsyncReadInterruptBeforeCheck(t *testing.T) {
	m, s := newAsync(t)

	// The interrupt lands between registration and the IP check: the
	// handler masks IE and wakes, and the check still sees the data.
	var once sync.Once
	m.BeforeIPRead(func() {
		once.Do(func() {
			m.Feed('x')
			m.WaitIdle()
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b, err := s.ReadByte(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte('x'), b)
}

func TestAsyncReadInterruptAfterCheck(t *testing.T) {
	m, s := newAsync(t)

	// The check sees nothing, then the interrupt fires before the task
	// suspends. The wake it delivers must not be lost.
	var once sync.Once
	m.AfterIPRead(func(ip chip.IP) {
		if ip.GetRXWM() {
			return
		}
		once.Do(func() {
			m.Feed('y')
			m.WaitIdle()
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b, err := s.ReadByte(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte('y'), b)
}

func TestAsyncReadPeripheralError(t *testing.T) {
	m, s := newAsync(t)
	m.FeedError(0)

	_, err := s.ReadByte(context.Background())
	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, ErrorKindOther, uerr.Kind)
}

func TestAsyncReadCanceled(t *testing.T) {
	_, s := newAsync(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Read(ctx, make([]byte, 1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAsyncReadEmptyBuffer(t *testing.T) {
	_, s := newAsync(t)
	assert.NoError(t, s.Read(context.Background(), nil))
	assert.False(t, s.rxWaker.Registered())
}

func TestAsyncWriteDoesNotSuspend(t *testing.T) {
	m, s := newAsync(t)
	ctx := context.Background()

	m.StallTx(true)
	for i := 0; i < 8; i++ {
		require.NoError(t, s.Write(ctx, 'z'))
	}
	assert.ErrorIs(t, s.Write(ctx, 'z'), ErrWouldBlock)
	assert.ErrorIs(t, s.Flush(ctx), ErrWouldBlock)

	m.StallTx(false)
	assert.NoError(t, s.Flush(ctx))
	assert.Equal(t, []byte("zzzzzzzz"), m.Output())
}

func TestAsyncPriority(t *testing.T) {
	tests := []struct {
		name     string
		priority interrupt.Priority
	}{
		{"default", interrupt.P0},
		{"explicit", interrupt.P5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, p := newMachine(t)
			config := testConfig()
			config.Priority = tc.priority
			s, err := NewAsync(p.UART0, p.PLIC, config)
			require.NoError(t, err)

			want := tc.priority
			if want == interrupt.P0 {
				want = DefaultPriority
			}
			assert.Equal(t, want, s.priority)
		})
	}
}

func TestAsyncSplitAndFree(t *testing.T) {
	m, s := newAsync(t)
	tx, rx := s.Split()

	require.NoError(t, tx.Write(context.Background(), 'a'))
	m.Feed('b')
	b, err := rx.ReadByte(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte('b'), b)

	_, pins := s.Free()
	assert.Equal(t, Pins{TXD: chip.UART0TX, RXD: chip.UART0RX}, pins)
	assert.Equal(t, chip.IE(0), m.UARTIE())
	assert.False(t, m.PLIC().Deliverable(chip.SourceUART0))
}
