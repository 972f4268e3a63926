package sim

import (
	"sync"

	"omibyte.io/e310/critical"
	"omibyte.io/e310/interrupt"
)

// PLIC models the platform-level interrupt controller together with the
// hart's global interrupt enable. Handlers are dispatched one at a time on a
// dedicated goroutine, each inside a critical section, so a handler preempts
// task code only between sections.
type PLIC struct {
	mu        sync.Mutex
	cond      *sync.Cond
	handlers  map[interrupt.Source]interrupt.Handler
	enabled   map[interrupt.Source]bool
	priority  map[interrupt.Source]interrupt.Priority
	pending   map[interrupt.Source]bool
	threshold interrupt.Priority
	global    bool
	busy      bool
	closed    bool
	done      chan struct{}

	// begin and complete bracket every handler, outside the section. complete
	// lets level-triggered sources be sampled again.
	begin    func(src interrupt.Source)
	complete func(src interrupt.Source)
}

func newPLIC(begin, complete func(src interrupt.Source)) *PLIC {
	p := &PLIC{
		handlers: map[interrupt.Source]interrupt.Handler{},
		enabled:  map[interrupt.Source]bool{},
		priority: map[interrupt.Source]interrupt.Priority{},
		pending:  map[interrupt.Source]bool{},
		done:     make(chan struct{}),
		begin:    begin,
		complete: complete,
	}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

func (p *PLIC) Handle(src interrupt.Source, handler interrupt.Handler) {
	p.mu.Lock()
	p.handlers[src] = handler
	p.mu.Unlock()
}

func (p *PLIC) Enable(src interrupt.Source) {
	p.mu.Lock()
	p.enabled[src] = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *PLIC) Disable(src interrupt.Source) {
	p.mu.Lock()
	p.enabled[src] = false
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *PLIC) SetPriority(src interrupt.Source, priority interrupt.Priority) {
	p.mu.Lock()
	p.priority[src] = priority
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *PLIC) SetThreshold(priority interrupt.Priority) {
	p.mu.Lock()
	p.threshold = priority
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *PLIC) ClearPending(src interrupt.Source) {
	p.mu.Lock()
	p.pending[src] = false
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *PLIC) EnableGlobal() {
	p.mu.Lock()
	p.global = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Raise latches src as pending.
func (p *PLIC) Raise(src interrupt.Source) {
	p.mu.Lock()
	p.pending[src] = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Lower drops a level-triggered source.
func (p *PLIC) Lower(src interrupt.Source) {
	p.mu.Lock()
	p.pending[src] = false
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Pending reports whether src is latched.
func (p *PLIC) Pending(src interrupt.Source) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending[src]
}

// Deliverable reports whether src would be dispatched if it became pending.
func (p *PLIC) Deliverable(src interrupt.Source) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deliverable(src)
}

func (p *PLIC) deliverable(src interrupt.Source) bool {
	if !p.global || !p.enabled[src] {
		return false
	}
	return src.IsCore() || p.priority[src] > p.threshold
}

// next picks the pending source to dispatch: core interrupts first, then the
// external source with the highest priority, lowest id on a tie.
func (p *PLIC) next() (interrupt.Source, bool) {
	var (
		best  interrupt.Source
		found bool
	)
	for src, pending := range p.pending {
		if !pending || !p.deliverable(src) {
			continue
		}
		if !found || p.before(src, best) {
			best, found = src, true
		}
	}
	return best, found
}

func (p *PLIC) before(a, b interrupt.Source) bool {
	switch {
	case a.IsCore() != b.IsCore():
		return a.IsCore()
	case p.priority[a] != p.priority[b]:
		return p.priority[a] > p.priority[b]
	default:
		return a < b
	}
}

func (p *PLIC) run() {
	defer close(p.done)

	p.mu.Lock()
	for {
		src, ok := p.next()
		for !ok && !p.closed {
			p.cond.Wait()
			src, ok = p.next()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}

		handler := p.handlers[src]
		if src.IsCore() || handler == nil {
			// Core sources are levels owned by the CLINT and are sampled
			// again after the handler; an unhandled source is dropped.
			p.pending[src] = false
		}
		p.busy = true
		p.mu.Unlock()

		if handler != nil {
			if p.begin != nil {
				p.begin(src)
			}
			cs, release := critical.Acquire()
			handler(cs)
			release()

			if p.complete != nil {
				p.complete(src)
			}
		}

		p.mu.Lock()
		p.busy = false
		p.cond.Broadcast()
	}
}

// WaitIdle blocks until no handler is running and nothing deliverable is
// pending.
func (p *PLIC) WaitIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for !p.closed {
		if _, ok := p.next(); !ok && !p.busy {
			return
		}
		p.cond.Wait()
	}
}

func (p *PLIC) close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	<-p.done
}
