// virtual_clock.go - Monotonic virtual clock and one-shot callback scheduler

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

/*
virtual_clock.go - Virtual Clock for the BMC Engine

This module implements the monotonic time source that drives every timed
device in the machine. Time is expressed in nanoseconds since machine
power-on and only ever moves forward, explicitly via Advance: tests and the
demo drive it programmatically, the monitor through its adv command.

Core Features:

    Nanosecond-resolution monotonic virtual time, independent of host speed.
    One-shot callbacks scheduled at absolute deadlines, cancellable while
    pending.
    Deadline-ordered synchronous delivery: Advance fires every due callback
    on the caller's goroutine before returning, so device state is always
    consistent when control returns.
    Callbacks may schedule further callbacks (periodic re-arm) during
    delivery; they are honoured within the same Advance if still due.

The emulation is single-threaded and cooperative: callbacks never run
concurrently with register accesses. The mutex here only guards the timer
queue against monitor/run-loop interleaving, not device state.
*/

package main

import (
	"container/heap"
	"sync"
)

// ClockTimer is a handle for one scheduled callback. It is owned by the
// component that scheduled it and is single-use: once fired or cancelled it
// never fires again.
type ClockTimer struct {
	deadlineNs int64
	seq        uint64
	fn         func()
	dead       bool
	index      int // position in the heap, -1 when popped
}

// Cancel removes the callback from the queue. Cancelling an already fired
// or already cancelled timer is a no-op.
func (t *ClockTimer) Cancel() {
	if t == nil {
		return
	}
	t.dead = true
}

type timerQueue []*ClockTimer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadlineNs != q[j].deadlineNs {
		return q[i].deadlineNs < q[j].deadlineNs
	}
	// Equal deadlines fire in scheduling order.
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*ClockTimer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// VirtualClock is the machine's monotonic time source and timer scheduler.
type VirtualClock struct {
	mu      sync.Mutex
	nowNs   int64
	nextSeq uint64
	queue   timerQueue
}

func NewVirtualClock() *VirtualClock {
	return &VirtualClock{}
}

// Now returns the current virtual time in nanoseconds since power-on.
func (c *VirtualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowNs
}

// Schedule arranges for fn to run when virtual time reaches deadlineNs.
// A deadline at or before the current time fires on the next Advance.
func (c *VirtualClock) Schedule(deadlineNs int64, fn func()) *ClockTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &ClockTimer{
		deadlineNs: deadlineNs,
		seq:        c.nextSeq,
		fn:         fn,
	}
	c.nextSeq++
	heap.Push(&c.queue, t)
	return t
}

// Advance moves virtual time forward by deltaNs, firing every callback whose
// deadline falls within the window, in deadline order. Each callback observes
// Now() == its own deadline, matching how a hardware counter reaches zero at
// an exact instant.
func (c *VirtualClock) Advance(deltaNs int64) {
	if deltaNs < 0 {
		return
	}
	c.AdvanceTo(c.Now() + deltaNs)
}

// AdvanceTo moves virtual time forward to targetNs. Moving backwards is not
// possible; a target in the past is ignored.
func (c *VirtualClock) AdvanceTo(targetNs int64) {
	for {
		c.mu.Lock()
		if targetNs <= c.nowNs {
			c.mu.Unlock()
			return
		}
		t := c.popDueLocked(targetNs)
		if t == nil {
			c.nowNs = targetNs
			c.mu.Unlock()
			return
		}
		if c.nowNs < t.deadlineNs {
			c.nowNs = t.deadlineNs
		}
		c.mu.Unlock()

		// Fired outside the lock so the callback can reschedule.
		t.fn()
	}
}

// popDueLocked returns the earliest live timer due at or before targetNs,
// discarding cancelled entries along the way.
func (c *VirtualClock) popDueLocked(targetNs int64) *ClockTimer {
	for c.queue.Len() > 0 {
		t := c.queue[0]
		if t.dead {
			heap.Pop(&c.queue)
			continue
		}
		if t.deadlineNs > targetNs {
			return nil
		}
		heap.Pop(&c.queue)
		t.dead = true
		return t
	}
	return nil
}

// PendingTimers reports how many live callbacks are queued. Used by the
// monitor's state display and by tests.
func (c *VirtualClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.queue {
		if !t.dead {
			n++
		}
	}
	return n
}
