package uart

import "errors"

var (
	// ErrWouldBlock reports that the FIFO is not ready. It is the expected
	// steady state of the polling API; retry later.
	ErrWouldBlock    = errors.New("operation would block")
	ErrInvalidPinout = errors.New("invalid pinout")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrorKind classifies a peripheral error.
type ErrorKind uint8

const (
	ErrorKindOther ErrorKind = iota
	ErrorKindOverrun
	ErrorKindFrameFormat
	ErrorKindParity
	ErrorKindNoise
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindOverrun:
		return "overrun"
	case ErrorKindFrameFormat:
		return "frame format"
	case ErrorKindParity:
		return "parity"
	case ErrorKindNoise:
		return "noise"
	default:
		return "other"
	}
}

// Error is a fault reported by the peripheral for one received word. The
// driver does not retry; the word is gone.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string {
	return "uart " + e.Kind.String() + " error"
}
