package timer

import "math"

// Disarmed is the deadline of a slot that must not fire.
const Disarmed uint64 = math.MaxUint64

// Handle identifies one alarm slot. Handles are only minted by AllocateAlarm
// and are trusted at use.
type Handle struct {
	id uint8
}

func (h Handle) ID() uint8 {
	return h.id
}

// alarm is one slot of the table. Every field is only touched inside a
// critical section.
type alarm struct {
	deadline uint64
	callback func()
}

func newTable(n int) []alarm {
	alarms := make([]alarm, n)
	for i := range alarms {
		alarms[i].deadline = Disarmed
	}
	return alarms
}

// earliest returns the soonest deadline in the table, or Disarmed.
func earliest(alarms []alarm) uint64 {
	next := Disarmed
	for _, a := range alarms {
		if a.deadline < next {
			next = a.deadline
		}
	}
	return next
}
