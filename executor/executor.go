// Package executor runs cooperative tasks on top of the alarm timer. It owns
// one alarm and multiplexes every sleeping task onto it through a queue
// sorted by deadline.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"omibyte.io/e310/timer"
	"omibyte.io/e310/waker"
)

// Task is the body of a spawned task. It must return once ctx is done.
type Task func(ctx context.Context) error

type task struct {
	name string
	run  Task
}

type sleeper struct {
	deadline uint64
	done     chan struct{}
}

type Executor struct {
	driver *timer.Driver
	alarm  timer.Handle
	fired  chan struct{}

	mu    sync.Mutex
	tasks []task
	queue []*sleeper
}

// New claims an alarm from driver. It fails with timer.ErrAlarmsExhausted if
// every slot is already taken.
func New(driver *timer.Driver) (*Executor, error) {
	h, ok := driver.AllocateAlarm()
	if !ok {
		return nil, timer.ErrAlarmsExhausted
	}

	e := &Executor{
		driver: driver,
		alarm:  h,
		fired:  make(chan struct{}, 1),
	}
	driver.SetAlarmCallback(h, waker.Signal(e.fired))
	return e, nil
}

// Spawn queues a task for the next Run.
func (e *Executor) Spawn(name string, t Task) {
	e.mu.Lock()
	e.tasks = append(e.tasks, task{name: name, run: t})
	e.mu.Unlock()
}

// Run starts every spawned task and blocks until all of them have returned.
// The first task error cancels the others and is returned; otherwise Run
// returns ctx.Err().
func (e *Executor) Run(ctx context.Context) error {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	serviceCtx, stop := context.WithCancel(gctx)
	defer stop()
	serviced := make(chan struct{})
	go func() {
		defer close(serviced)
		e.service(serviceCtx)
	}()

	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := t.run(gctx); err != nil {
				return fmt.Errorf("task %s: %w", t.name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	stop()
	<-serviced

	if err == nil {
		err = ctx.Err()
	}
	return err
}

// service waits for the alarm and releases the sleepers it was armed for.
func (e *Executor) service(ctx context.Context) {
	for {
		select {
		case <-e.fired:
			e.reschedule()
		case <-ctx.Done():
			return
		}
	}
}

// Now returns the current tick.
func (e *Executor) Now() uint64 {
	return e.driver.Now()
}

// Sleep suspends the caller for ticks timer ticks or until ctx is done.
func (e *Executor) Sleep(ctx context.Context, ticks uint64) error {
	return e.SleepUntil(ctx, e.driver.Now()+ticks)
}

// After is Sleep with the delay given as wall time.
func (e *Executor) After(ctx context.Context, d time.Duration) error {
	return e.Sleep(ctx, timer.Ticks(d))
}

// SleepUntil suspends the caller until the timer reaches deadline or ctx is
// done.
func (e *Executor) SleepUntil(ctx context.Context, deadline uint64) error {
	s := &sleeper{deadline: deadline, done: make(chan struct{})}

	e.mu.Lock()
	i, _ := slices.BinarySearchFunc(e.queue, deadline, func(s *sleeper, t uint64) int {
		// Equal deadlines keep arrival order.
		if s.deadline <= t {
			return -1
		}
		return 1
	})
	e.queue = slices.Insert(e.queue, i, s)
	e.mu.Unlock()

	e.reschedule()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		e.mu.Lock()
		if i := slices.Index(e.queue, s); i >= 0 {
			e.queue = slices.Delete(e.queue, i, i+1)
		}
		e.mu.Unlock()
		return ctx.Err()
	}
}

// Pending returns the number of sleeping tasks.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Next returns the earliest deadline any task is sleeping until.
func (e *Executor) Next() (deadline uint64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return 0, false
	}
	return e.queue[0].deadline, true
}

// reschedule releases every expired sleeper and arms the alarm for the
// earliest remaining one. A deadline that passes while arming is handled
// here rather than by the interrupt.
func (e *Executor) reschedule() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		now := e.driver.Now()
		n := 0
		for n < len(e.queue) && e.queue[n].deadline <= now {
			close(e.queue[n].done)
			n++
		}
		e.queue = slices.Delete(e.queue, 0, n)

		if len(e.queue) == 0 {
			return
		}
		if e.driver.SetAlarm(e.alarm, e.queue[0].deadline) {
			return
		}
	}
}
