package main

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"omibyte.io/e310/executor"
	"omibyte.io/e310/stdout"
	"omibyte.io/e310/uart"
)

const blinkPeriod = time.Second

// echo sends every received byte straight back out of the console.
func echo(rx *uart.AsyncRx) executor.Task {
	return func(ctx context.Context) error {
		buf := make([]byte, 1)
		for {
			err := rx.Read(ctx, buf)
			var uerr *uart.Error
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.As(err, &uerr):
				stdout.Printf("rx: %v\n", uerr)
				continue
			case err != nil:
				return err
			}
			stdout.Print(string(buf))
		}
	}
}

// led stands in for the board LED the blink task toggles.
type led struct {
	on      atomic.Bool
	toggles atomic.Uint64
}

func (l *led) toggle() {
	l.on.Store(!l.on.Load())
	l.toggles.Add(1)
}

func blink(exec *executor.Executor, l *led) executor.Task {
	return func(ctx context.Context) error {
		for {
			l.toggle()
			if err := exec.After(ctx, blinkPeriod); err != nil {
				return nil
			}
		}
	}
}
