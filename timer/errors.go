package timer

import "errors"

var (
	// ErrAlarmsExhausted is fatal: alarms are never freed, so a consumer
	// that cannot get one at startup will never get one.
	ErrAlarmsExhausted = errors.New("no alarm slots left")
)
