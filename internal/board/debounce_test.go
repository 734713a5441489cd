package board

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerRunsOnlyLastCall(t *testing.T) {
	clock := newFakeClock(fixedNow)
	d := NewDebouncer(300*time.Millisecond, clock)

	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		d.Trigger(func() { got = append(got, i) })
		clock.Advance(200 * time.Millisecond)
	}
	assert.Empty(t, got)

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []int{3}, got)
}

func TestDebouncerCancel(t *testing.T) {
	clock := newFakeClock(fixedNow)
	d := NewDebouncer(300*time.Millisecond, clock)

	ran := false
	d.Trigger(func() { ran = true })
	d.Cancel()
	clock.Advance(time.Second)

	assert.False(t, ran)
}

func TestDebouncerSystemClock(t *testing.T) {
	d := NewDebouncer(10*time.Millisecond, SystemClock())

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Trigger(func() { calls.Add(10) })

	assert.Eventually(t, func() bool { return calls.Load() == 10 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(10), calls.Load())
}

func TestSystemClockEvery(t *testing.T) {
	var ticks atomic.Int32
	timer := SystemClock().Every(5*time.Millisecond, func() { ticks.Add(1) })

	assert.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, time.Millisecond)
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	// at most one tick may already be in flight when Stop returns
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), after+1)
}
