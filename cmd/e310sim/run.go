package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"omibyte.io/e310/board"
	"omibyte.io/e310/executor"
	"omibyte.io/e310/sim"
	"omibyte.io/e310/stdout"
	"omibyte.io/e310/timer"
	"omibyte.io/e310/uart"
)

const settleTimeout = 5 * time.Second

var (
	runOpts = struct {
		board string
		input string
		ticks uint64
	}{}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the echo and blink tasks",
		Long:  "Run a UART echo task and an LED blink task on the simulated board, feeding the input to the receive line while time advances.",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := board.Lookup(runOpts.board)
			if err != nil {
				return err
			}
			report, err := simulate(cmd.Context(), b, []byte(runOpts.input), runOpts.ticks)
			if err != nil {
				return err
			}
			report.print(cmd)
			return nil
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&runOpts.board, "board", "b", "sim", "board to simulate")
	runCmd.Flags().StringVarP(&runOpts.input, "input", "i", "hello\n", "bytes fed to the UART receive line")
	runCmd.Flags().Uint64VarP(&runOpts.ticks, "ticks", "t", 5*timer.FrequencyHz, "simulated time to run, in timer ticks")
}

type report struct {
	board   string
	elapsed uint64
	output  []byte
	dropped int
	toggles uint64
	latency sim.LatencyStats
}

func (r report) print(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "board:   %s\n", r.board)
	fmt.Fprintf(out, "elapsed: %d ticks (%v)\n", r.elapsed, timer.Duration(r.elapsed))
	fmt.Fprintf(out, "uart:    %q\n", r.output)
	if r.dropped > 0 {
		fmt.Fprintf(out, "dropped: %d\n", r.dropped)
	}
	fmt.Fprintf(out, "blinks:  %d\n", r.toggles)
	fmt.Fprintf(out, "timer irq latency: n=%d mean=%.2f stddev=%.2f max=%.0f ticks\n",
		r.latency.Samples, r.latency.Mean, r.latency.StdDev, r.latency.Max)
}

// simulate wires the drivers to a fresh machine, runs the demo tasks for
// ticks of simulated time and collects what happened.
func simulate(ctx context.Context, b board.Board, input []byte, ticks uint64) (report, error) {
	m := sim.New()
	defer m.Close()

	p, err := m.Peripherals()
	if err != nil {
		return report{}, err
	}

	driver := timer.New(p.CLINT, p.PLIC, b.TimerConfig())
	exec, err := executor.New(driver)
	if err != nil {
		return report{}, err
	}

	serial, err := uart.NewAsync(p.UART0, p.PLIC, b.UARTConfig())
	if err != nil {
		return report{}, err
	}
	defer serial.Free()
	serial.EnableInterrupts()
	tx, rx := serial.Split()
	stdout.Configure(&tx.Tx)
	defer stdout.Configure(nil)

	var l led
	exec.Spawn("echo", echo(rx))
	exec.Spawn("blink", blink(exec, &l))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- exec.Run(ctx)
	}()

	// Feed the input up front; the FIFO holds eight bytes, so longer input
	// is fed as the echo task drains it.
	start := m.Now()
	sent := 0
	for sent < len(input) {
		n := min(len(input)-sent, 8)
		m.Feed(input[sent : sent+n]...)
		sent += n
		if !settle(func() bool { return len(m.Output()) >= sent }) {
			log.Printf("echo stalled after %d of %d bytes", len(m.Output()), sent)
			break
		}
	}

	// Step time from one sleeper deadline to the next so every blink period
	// is serviced.
	end := start + ticks
	for now := m.Now(); now < end; now = m.Now() {
		var next uint64
		if !settle(func() bool {
			var ok bool
			next, ok = exec.Next()
			return ok && next > m.Now()
		}) {
			next = end
		}
		m.Advance(min(next, end) - now)
	}

	cancel()
	if err := <-done; err != nil && ctx.Err() == nil {
		return report{}, err
	}

	return report{
		board:   b.Name,
		elapsed: m.Now() - start,
		output:  m.Output(),
		dropped: m.Dropped(),
		toggles: l.toggles.Load(),
		latency: m.LatencyStats(),
	}, nil
}

// settle polls cond until it holds or settleTimeout passes. The tasks run
// on their own goroutines, so the simulator waits for them between steps.
func settle(cond func() bool) bool {
	deadline := time.Now().Add(settleTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Microsecond)
	}
	return true
}

func min[T uint64 | int](a, b T) T {
	if a < b {
		return a
	}
	return b
}
