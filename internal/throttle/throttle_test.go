package throttle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock - ручные часы: таймеры срабатывают на Advance
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(0, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance сдвигает время и синхронно вызывает созревшие таймеры
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due *fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(c.now) {
				due = t
				break
			}
		}
		if due != nil {
			due.fired = true
		}
		c.mu.Unlock()
		if due == nil {
			return
		}
		due.f()
	}
}

func TestThrottler_LeadingAndTrailing(t *testing.T) {
	clock := newFakeClock()
	th := NewWithClock(Config{Interval: 200 * time.Millisecond, Leading: true, Trailing: true}, clock)

	var got []int
	for i := 1; i <= 5; i++ {
		i := i
		th.Do(func() { got = append(got, i) })
	}
	assert.Equal(t, []int{1}, got, "первое событие выполняется сразу")

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, []int{1, 5}, got, "в конце окна выполняется последнее")

	// trailing открыл новое окно, оно пустое и закрывается
	clock.Advance(200 * time.Millisecond)
	assert.True(t, th.Do(func() { got = append(got, 6) }))
	assert.Equal(t, []int{1, 5, 6}, got)

	accepted, dropped := th.Stats()
	assert.Equal(t, uint64(3), accepted)
	assert.Equal(t, uint64(3), dropped)
}

func TestThrottler_LeadingOnly(t *testing.T) {
	clock := newFakeClock()
	th := NewWithClock(Config{Interval: time.Second, Leading: true}, clock)

	count := 0
	for i := 0; i < 10; i++ {
		th.Do(func() { count++ })
	}
	clock.Advance(time.Second)
	assert.Equal(t, 1, count, "без trailing события окна отбрасываются")

	th.Do(func() { count++ })
	assert.Equal(t, 2, count)
}

func TestThrottler_TrailingOnly(t *testing.T) {
	clock := newFakeClock()
	th := NewWithClock(Config{Interval: time.Second, Trailing: true}, clock)

	count := 0
	assert.False(t, th.Do(func() { count++ }))
	assert.Equal(t, 0, count)

	clock.Advance(time.Second)
	assert.Equal(t, 1, count)
}

func TestThrottler_AtMostOnePerWindow(t *testing.T) {
	clock := newFakeClock()
	th := NewWithClock(Config{Interval: 100 * time.Millisecond, Leading: true, Trailing: true}, clock)

	count := 0
	// 1000 событий с шагом 1ms => 10 окон
	for i := 0; i < 1000; i++ {
		th.Do(func() { count++ })
		clock.Advance(time.Millisecond)
	}
	clock.Advance(time.Second)
	assert.LessOrEqual(t, count, 11)
	assert.GreaterOrEqual(t, count, 10)
}

func TestThrottler_Stop(t *testing.T) {
	clock := newFakeClock()
	th := NewWithClock(Config{Interval: time.Second, Leading: true, Trailing: true}, clock)

	count := 0
	th.Do(func() { count++ })
	th.Do(func() { count++ })
	th.Stop()
	clock.Advance(time.Second)
	assert.Equal(t, 1, count, "ожидающее событие отменено")
}

func TestThrottler_ZeroInterval(t *testing.T) {
	th := New(Config{})
	count := 0
	for i := 0; i < 3; i++ {
		assert.True(t, th.Do(func() { count++ }))
	}
	assert.Equal(t, 3, count)
}
