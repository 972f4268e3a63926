package critical

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMutexLock(t *testing.T) {
	counter := NewMutex(0)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				counter.Lock(func(v *int) {
					*v++
				})
			}
		}()
	}
	wg.Wait()

	With(func(cs Token) {
		assert.Equal(t, 6400, *counter.Borrow(cs))
	})
}

func TestAcquireExcludesWith(t *testing.T) {
	_, release := Acquire()

	entered := make(chan struct{})
	go func() {
		With(func(Token) {})
		close(entered)
	}()

	select {
	case <-entered:
		t.Fatal("section entered while another was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("section was not entered after release")
	}
}
