package board

import (
	"sync"
	"time"
)

// Timer is a pending one-shot or periodic callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the controller's refresh and debounce can be driven
// by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	Every(d time.Duration, f func()) Timer
}

type realClock struct{}

// SystemClock is a Clock backed by the time package.
func SystemClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) Every(d time.Duration, f func()) Timer {
	t := &ticker{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.run(f)
	return t
}

type ticker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *ticker) run(f func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			f()
		}
	}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
