// component_reset.go - Reset() methods for all hardware components (hard reset support)

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

package main

// TimerModule.Reset restores datasheet reset defaults: every channel
// stopped with TCSR=0x00000005 and a zero reload, the interrupt status
// latch cleared, WTCR at its reset value, all pending callbacks cancelled
// and every interrupt line lowered.
func (tm *TimerModule) Reset() {
	for _, ch := range tm.channels {
		if ch.timer != nil {
			ch.timer.Cancel()
			ch.timer = nil
		}
		ch.deadlineNs = 0
		ch.remainingNs = 0
		ch.tcsr = TCSR_RESET_VALUE
		ch.ticr = TICR_RESET_VALUE
	}

	tm.tisr = TISR_RESET_VALUE
	tm.wtcr = WTCR_RESET_VALUE

	for _, ch := range tm.channels {
		ch.irq.Set(false)
	}
}

// InterruptController.Reset lowers every line.
func (ic *InterruptController) Reset() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	for i := range ic.levels {
		ic.levels[i] = false
	}
}

// VirtualClock.Reset drops all pending callbacks and rewinds time to
// power-on. Only valid as part of a whole-machine reset: every device that
// owns a ClockTimer handle must discard it in its own Reset.
func (c *VirtualClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowNs = 0
	c.nextSeq = 0
	c.queue = nil
}

// MachineBus.Reset clears the entire memory state. I/O mappings survive; a
// hard reset does not rewire the board.
func (bus *MachineBus) Reset() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	clear(bus.memory)
}

// Machine.Reset performs a hard reset of the whole board. Devices reset
// before the clock so their cancelled timer handles are already dropped
// when the queue is emptied.
func (m *Machine) Reset() {
	for _, tm := range m.timers {
		tm.Reset()
	}
	m.intc.Reset()
	m.bus.Reset()
	m.clock.Reset()
}
