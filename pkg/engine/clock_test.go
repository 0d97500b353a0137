package engine

import (
	"sync"
	"time"
)

type fakeTimer struct {
	at time.Time
	ch chan time.Time
}

// fakeClock fires timers only when advanced. Firing blocks until the
// loop receives the tick, so a barrier after Advance observes its effect.
// Timers abandoned by the loop are given up after a short wait.
type fakeClock struct {
	lock   sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	t := &fakeTimer{at: c.now.Add(d), ch: make(chan time.Time)}
	c.timers = append(c.timers, t)
	return t.ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []*fakeTimer
	kept := c.timers[:0]
	for _, t := range c.timers {
		if !t.at.After(now) {
			due = append(due, t)
		} else {
			kept = append(kept, t)
		}
	}
	c.timers = kept
	c.lock.Unlock()

	for _, t := range due {
		select {
		case t.ch <- now:
		case <-time.After(20 * time.Millisecond):
		}
	}
}
