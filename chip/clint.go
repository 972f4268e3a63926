package chip

// CLINT is the core-local interruptor: the free-running machine timer, its
// comparator and the hart's machine timer interrupt enable (mie.MTIE).
type CLINT interface {
	// MTIME returns the 64-bit tick counter. It never goes backwards.
	MTIME() uint64
	MTIMECMP() uint64
	SetMTIMECMP(value uint64)
	MTIE() bool
	SetMTIE(enable bool)
}

const (
	RTCFrequency     = 32_768
	MachineTimerCode = 7
)
