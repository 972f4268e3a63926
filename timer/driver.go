// Package timer maps "wake me at tick T" requests onto the single machine
// timer comparator of the CLINT.
package timer

import (
	"math"
	"sync/atomic"
	"time"

	"omibyte.io/e310/chip"
	"omibyte.io/e310/critical"
	"omibyte.io/e310/interrupt"
)

const (
	FrequencyHz   = chip.RTCFrequency
	DefaultAlarms = 1
	// MaxAlarms is the most slots a Handle can address.
	MaxAlarms = math.MaxUint8 + 1
)

type Config struct {
	// Alarms is the capacity of the alarm table, at most MaxAlarms.
	Alarms int
	// Reload is how far the interrupt handler moves the comparator each time
	// it fires.
	Reload uint64
}

// Driver owns the CLINT comparator and the alarm table.
type Driver struct {
	clint  chip.CLINT
	reload uint64
	count  atomic.Uint32
	alarms *critical.Mutex[[]alarm]
}

// New builds the driver and installs its handler for the machine timer
// interrupt. Nothing is armed until SetAlarm.
func New(clint chip.CLINT, ctrl interrupt.Controller, config Config) *Driver {
	if config.Alarms <= 0 {
		config.Alarms = DefaultAlarms
	}
	if config.Alarms > MaxAlarms {
		config.Alarms = MaxAlarms
	}
	if config.Reload == 0 {
		config.Reload = FrequencyHz
	}

	d := &Driver{
		clint:  clint,
		reload: config.Reload,
		alarms: critical.NewMutex(newTable(config.Alarms)),
	}

	irq := interrupt.New(chip.MachineTimer, ctrl, d.HandleInterrupt)
	irq.EnableIRQ()
	ctrl.EnableGlobal()
	return d
}

// Now returns the current tick count. It takes no lock and is safe anywhere,
// including inside a critical section.
func (d *Driver) Now() uint64 {
	return d.clint.MTIME()
}

// Capacity returns the size of the alarm table.
func (d *Driver) Capacity() int {
	var n int
	d.alarms.Lock(func(alarms *[]alarm) {
		n = len(*alarms)
	})
	return n
}

// AllocateAlarm hands out the next free slot. Slots are never returned, so
// at most Capacity calls ever succeed.
func (d *Driver) AllocateAlarm() (h Handle, ok bool) {
	critical.With(func(cs critical.Token) {
		capacity := uint32(len(*d.alarms.Borrow(cs)))
		id := d.count.Load()
		if id < capacity {
			d.count.Store(id + 1)
			h, ok = Handle{id: uint8(id)}, true
		}
	})
	return
}

// SetAlarmCallback stores the function the handler calls when the alarm
// expires. It must be set before the first SetAlarm on h.
func (d *Driver) SetAlarmCallback(h Handle, callback func()) {
	critical.With(func(cs critical.Token) {
		(*d.alarms.Borrow(cs))[h.id].callback = callback
	})
}

// SetAlarm arms h for timestamp. If timestamp is not in the future the slot
// is disarmed and SetAlarm returns false; the caller must handle the expiry
// itself. The comparator always follows the earliest armed slot, and its
// interrupt is disabled once no slot is armed.
func (d *Driver) SetAlarm(h Handle, timestamp uint64) (armed bool) {
	critical.With(func(cs critical.Token) {
		alarms := *d.alarms.Borrow(cs)
		slot := &alarms[h.id]
		slot.deadline = timestamp

		if timestamp <= d.Now() {
			slot.deadline = Disarmed
		} else {
			armed = true
		}

		next := earliest(alarms)
		if next == Disarmed {
			d.clint.SetMTIE(false)
			return
		}
		d.clint.SetMTIMECMP(next)
		d.clint.SetMTIE(true)
	})
	return
}

// Deadline returns the tick h is armed for, or Disarmed.
func (d *Driver) Deadline(h Handle) (deadline uint64) {
	critical.With(func(cs critical.Token) {
		deadline = (*d.alarms.Borrow(cs))[h.id].deadline
	})
	return
}

// HandleInterrupt services a comparator match. Slots whose deadline has been
// reached are disarmed and their callbacks run here, in interrupt context
// with cs held: a callback must not block or open another section, so it
// cannot call back into the Driver. The comparator then moves on by one
// reload period, or to the earliest slot still armed if that comes sooner,
// so the interrupt stays armed until a SetAlarm leaves no slot armed.
func (d *Driver) HandleInterrupt(cs critical.Token) {
	next := d.clint.MTIMECMP() + d.reload

	now := d.Now()
	alarms := *d.alarms.Borrow(cs)
	for i := range alarms {
		slot := &alarms[i]
		if slot.deadline > now {
			continue
		}
		slot.deadline = Disarmed
		if slot.callback != nil {
			slot.callback()
		}
	}

	if deadline := earliest(alarms); deadline < next {
		next = deadline
	}
	d.clint.SetMTIMECMP(next)
}

// Ticks converts d to timer ticks, rounding up.
func Ticks(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	secs, rem := uint64(d/time.Second), uint64(d%time.Second)
	return secs*FrequencyHz + (rem*FrequencyHz+uint64(time.Second)-1)/uint64(time.Second)
}

// Duration converts ticks to wall time, rounding down.
func Duration(ticks uint64) time.Duration {
	secs, rem := ticks/FrequencyHz, ticks%FrequencyHz
	return time.Duration(secs)*time.Second + time.Duration(rem*uint64(time.Second)/FrequencyHz)
}
