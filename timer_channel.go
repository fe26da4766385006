// timer_channel.go - Countdown channel state machine for the BMC timer module

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

/*
timer_channel.go - Timer Channel

One TimerChannel models a single 32-bit countdown counter clocked at
TIMER_REF_HZ through an 8-bit prescaler. The counter itself is never
stored or ticked: the channel keeps either an absolute virtual-clock
deadline (while counting) or a cached remaining duration (while stopped),
and computes the live count on demand from whichever is valid.

A channel is in exactly one of two states at any observable moment:

    RUNNING - CEN set, deadlineNs valid, a clock callback scheduled.
    STOPPED - CEN clear, remainingNs valid, no callback scheduled.

Transitions are driven solely by TCSR/TICR writes routed in from the owning
module and by the scheduled callback firing. The CACT status bit mirrors
the RUNNING state and is read-only to the guest.
*/

package main

// TimerChannel is one countdown channel. Fields are owned exclusively by
// the channel; the module reference is non-owning and used for the shared
// interrupt status latch.
type TimerChannel struct {
	module *TimerModule
	index  int
	irq    IRQLine

	timer *ClockTimer // scheduled expiration callback, nil while stopped

	deadlineNs  int64 // absolute expiration time, valid while running
	remainingNs int64 // time left on the counter, valid while stopped

	tcsr uint32
	ticr uint32
}

// prescaler returns the reference clock divider, 1..256.
func (t *TimerChannel) prescaler() int64 {
	return int64(t.tcsr&TCSR_PRESCALE_MASK) + 1
}

// countToNs converts a cycle count to a duration. The count and prescaler
// are widened first; 2^32 cycles at the slowest prescale is ~12 days, well
// inside int64.
func (t *TimerChannel) countToNs(count uint32) int64 {
	ns := int64(count)
	ns *= TIMER_TICK_NS
	ns *= t.prescaler()
	return ns
}

// nsToCount converts a duration to whole elapsed-cycle counts, truncating
// like the discrete counter in hardware.
func (t *TimerChannel) nsToCount(ns int64) uint32 {
	count := ns / TIMER_TICK_NS
	count /= t.prescaler()
	return uint32(count)
}

// checkInterrupt recomputes the channel's level-sensitive line: asserted
// iff the channel's interrupt is both enabled and latched pending.
func (t *TimerChannel) checkInterrupt() {
	pending := t.tcsr&TCSR_IE != 0 && t.module.tisr&(1<<t.index) != 0
	t.irq.Set(pending)
}

// start arms the channel: the counter reaches zero remainingNs from now.
// Also used to re-arm a running channel with a fresh duration, in which
// case the stale callback is dropped first.
func (t *TimerChannel) start() {
	if t.timer != nil {
		t.timer.Cancel()
	}
	now := t.module.clock.Now()
	t.deadlineNs = now + t.remainingNs
	t.timer = t.module.clock.Schedule(t.deadlineNs, t.expired)
	t.tcsr |= TCSR_CACT
}

// pause stops counting and records the time left so a later start resumes
// exactly where the counter stood. A non-positive remainder means the
// callback should already have fired; that is a scheduler integration bug,
// not guest input, and must not be tolerated silently.
func (t *TimerChannel) pause() {
	t.timer.Cancel()
	t.timer = nil
	now := t.module.clock.Now()
	t.remainingNs = t.deadlineNs - now
	if t.remainingNs <= 0 {
		panic("timer channel paused past its deadline")
	}
	t.tcsr &^= TCSR_CACT
}

// expired runs when the scheduled callback fires. A disable racing the
// deadline leaves a stale callback behind; CEN gone means it lost.
func (t *TimerChannel) expired() {
	t.timer = nil
	if t.tcsr&TCSR_CEN != 0 {
		t.reachedZero()
	}
}

// reachedZero latches the interrupt and either re-arms (periodic) or stops
// the channel (one-shot).
func (t *TimerChannel) reachedZero() {
	t.module.tisr |= 1 << t.index

	if t.tcsr&TCSR_PERIODIC != 0 {
		t.remainingNs = t.countToNs(t.ticr)
		if t.tcsr&TCSR_CEN != 0 {
			t.start()
		}
	} else {
		t.remainingNs = 0
		t.tcsr &^= TCSR_CEN | TCSR_CACT
	}

	t.checkInterrupt()
}

// restart reloads the counter from TICR. If the channel was enabled before
// the triggering write and still is, the running timer is re-armed with the
// fresh duration; a disabled-to-enabled transition is the caller's job.
func (t *TimerChannel) restart(oldTCSR uint32) {
	t.remainingNs = t.countToNs(t.ticr)

	if oldTCSR&t.tcsr&TCSR_CEN != 0 {
		t.start()
	}
}

// writeTCSR applies a guest write to the control register. Ordering is
// significant: CRST takes effect before a CEN transition, so a single write
// that both resets and enables starts from the fresh TICR value.
func (t *TimerChannel) writeTCSR(value uint32) {
	oldTCSR := t.tcsr

	if value&TCSR_RSVD != 0 {
		logGuestError("%s ch%d: reserved bits in 0x%08x ignored",
			t.module.name, t.index, value)
		value &^= TCSR_RSVD
	}
	if value&TCSR_CACT != 0 {
		logGuestError("%s ch%d: read-only bits in 0x%08x ignored",
			t.module.name, t.index, value)
		value &^= TCSR_CACT
	}

	t.tcsr = (t.tcsr & TCSR_CACT) | value

	if (oldTCSR^value)&TCSR_IE != 0 {
		t.checkInterrupt()
	}
	if value&TCSR_CRST != 0 {
		t.restart(oldTCSR)
		t.tcsr &^= TCSR_CRST
	}
	if (oldTCSR^value)&TCSR_CEN != 0 {
		if value&TCSR_CEN != 0 {
			t.start()
		} else {
			t.pause()
		}
	}
}

// writeTICR stores a new reload value and restarts from it. The restart
// only re-arms if the channel is already running; it never changes the
// enable state by itself.
func (t *TimerChannel) writeTICR(value uint32) {
	t.ticr = value

	t.restart(t.tcsr)
}

// readTDR returns the live counter value. While running it is derived from
// the deadline on every read, so successive reads decrease monotonically
// without any stored counter state.
func (t *TimerChannel) readTDR() uint32 {
	if t.tcsr&TCSR_CEN != 0 {
		now := t.module.clock.Now()
		return t.nsToCount(t.deadlineNs - now)
	}

	return t.nsToCount(t.remainingNs)
}
