package board

import (
	"sync"
	"time"
)

// Debouncer runs only the last function triggered within a quiet period.
type Debouncer struct {
	wait  time.Duration
	clock Clock

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

func NewDebouncer(wait time.Duration, clock Clock) *Debouncer {
	return &Debouncer{
		wait:  wait,
		clock: clock,
	}
}

// Trigger schedules f after the quiet period, replacing anything pending.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() {
		d.mu.Lock()
		current := gen == d.gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		// a timer that fired while being replaced must not run
		if current {
			f()
		}
	})
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
