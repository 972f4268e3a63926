package sim

// fifo is a fixed-depth ring, the shape of the UART's hardware queues.
type fifo[T any] struct {
	buffer []T
	begin  int
	n      int
}

func newFIFO[T any](depth int) fifo[T] {
	return fifo[T]{buffer: make([]T, depth)}
}

func (f *fifo[T]) Len() int {
	return f.n
}

func (f *fifo[T]) Full() bool {
	return f.n == len(f.buffer)
}

// Push appends v and reports false, dropping v, if the ring is full.
func (f *fifo[T]) Push(v T) bool {
	if f.Full() {
		return false
	}
	f.buffer[(f.begin+f.n)%len(f.buffer)] = v
	f.n++
	return true
}

func (f *fifo[T]) Pop() (v T, ok bool) {
	if f.n == 0 {
		return v, false
	}
	v = f.buffer[f.begin]
	f.begin = (f.begin + 1) % len(f.buffer)
	f.n--
	return v, true
}

// Drain empties the ring into dst in order.
func (f *fifo[T]) Drain(dst []T) []T {
	for {
		v, ok := f.Pop()
		if !ok {
			return dst
		}
		dst = append(dst, v)
	}
}
