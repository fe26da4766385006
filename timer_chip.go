// timer_chip.go - BMC timer module register block and dispatch

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

/*
timer_chip.go - Timer Module

This module implements the register-level model of one NPCM7xx-class timer
block: five independent countdown channels sharing an interrupt status
latch (TISR) and an inert watchdog control register (WTCR). Guest register
accesses arrive through HandleRead/HandleWrite (absolute bus addresses) or
ReadRegister/WriteRegister (module-relative offsets) and are routed to the
owning channel by offset tables.

Register semantics follow the Nuvoton datasheet as far as this model goes:

    TCSRn  - control/status; reserved bits masked, CACT read-only, CRST
             self-clearing. Enable transitions start or pause the channel.
    TICRn  - reload value; a write always reloads the counter and re-arms
             a running channel.
    TDRn   - live countdown value, computed on demand, read-only.
    TISR   - per-channel expiration latch, write-one-to-clear. Clearing a
             bit recomputes that channel's line immediately.
    WTCR   - accepted and stored, watchdog function not implemented.

Unknown offsets read as zero and ignore writes; both are reported as guest
programming errors. Access-size enforcement (32-bit aligned only) happens
at the machine bus boundary, not here.
*/

package main

// TimerModule owns five countdown channels plus the module-wide registers.
type TimerModule struct {
	name  string
	base  uint32
	clock *VirtualClock

	channels [TIMERS_PER_MODULE]*TimerChannel

	tisr uint32
	wtcr uint32
}

// NewTimerModule builds a timer module at the given bus base address. Each
// channel drives one of the supplied interrupt lines. Register state comes
// up in reset defaults.
func NewTimerModule(name string, base uint32, clock *VirtualClock, irqs [TIMERS_PER_MODULE]IRQLine) *TimerModule {
	tm := &TimerModule{
		name:  name,
		base:  base,
		clock: clock,
	}
	for i := range tm.channels {
		line := irqs[i]
		if line == nil {
			line = noopIRQLine{}
		}
		tm.channels[i] = &TimerChannel{
			module: tm,
			index:  i,
			irq:    line,
		}
	}
	tm.Reset()
	return tm
}

// tcsrChannel maps a TCSR offset to its channel index.
func tcsrChannel(offset uint32) (int, bool) {
	switch offset {
	case TIMER_TCSR0:
		return 0, true
	case TIMER_TCSR1:
		return 1, true
	case TIMER_TCSR2:
		return 2, true
	case TIMER_TCSR3:
		return 3, true
	case TIMER_TCSR4:
		return 4, true
	}
	return 0, false
}

// ticrChannel maps a TICR offset to its channel index.
func ticrChannel(offset uint32) (int, bool) {
	switch offset {
	case TIMER_TICR0:
		return 0, true
	case TIMER_TICR1:
		return 1, true
	case TIMER_TICR2:
		return 2, true
	case TIMER_TICR3:
		return 3, true
	case TIMER_TICR4:
		return 4, true
	}
	return 0, false
}

// tdrChannel maps a TDR offset to its channel index.
func tdrChannel(offset uint32) (int, bool) {
	switch offset {
	case TIMER_TDR0:
		return 0, true
	case TIMER_TDR1:
		return 1, true
	case TIMER_TDR2:
		return 2, true
	case TIMER_TDR3:
		return 3, true
	case TIMER_TDR4:
		return 4, true
	}
	return 0, false
}

// ReadRegister reads the 32-bit register at a module-relative offset.
func (tm *TimerModule) ReadRegister(offset uint32) uint32 {
	if ch, ok := tcsrChannel(offset); ok {
		return tm.channels[ch].tcsr
	}
	if ch, ok := ticrChannel(offset); ok {
		return tm.channels[ch].ticr
	}
	if ch, ok := tdrChannel(offset); ok {
		return tm.channels[ch].readTDR()
	}

	switch offset {
	case TIMER_TISR:
		return tm.tisr
	case TIMER_WTCR:
		return tm.wtcr
	}

	logGuestError("%s: invalid offset 0x%04x", tm.name, offset)
	return 0
}

// WriteRegister writes the 32-bit register at a module-relative offset.
func (tm *TimerModule) WriteRegister(offset uint32, value uint32) {
	if ch, ok := tcsrChannel(offset); ok {
		tm.channels[ch].writeTCSR(value)
		return
	}
	if ch, ok := ticrChannel(offset); ok {
		tm.channels[ch].writeTICR(value)
		return
	}
	if _, ok := tdrChannel(offset); ok {
		logGuestError("%s: register @ 0x%04x is read-only", tm.name, offset)
		return
	}

	switch offset {
	case TIMER_TISR:
		tm.writeTISR(value)
		return
	case TIMER_WTCR:
		logUnimp("%s: WTCR write not implemented: 0x%08x", tm.name, value)
		tm.wtcr = value
		return
	}

	logGuestError("%s: invalid offset 0x%04x", tm.name, offset)
}

// writeTISR clears latched interrupt bits, write-one-to-clear. Each cleared
// bit recomputes its channel's line right away so the guest sees the
// deassert on the very next instruction rather than at the next expiration.
func (tm *TimerModule) writeTISR(value uint32) {
	cleared := tm.tisr & value
	tm.tisr &^= value

	for i := range tm.channels {
		if cleared&(1<<i) != 0 {
			tm.channels[i].checkInterrupt()
		}
	}
}

// HandleRead implements the bus I/O read callback (absolute address).
func (tm *TimerModule) HandleRead(addr uint32) uint32 {
	return tm.ReadRegister(addr - tm.base)
}

// HandleWrite implements the bus I/O write callback (absolute address).
func (tm *TimerModule) HandleWrite(addr uint32, value uint32) {
	tm.WriteRegister(addr-tm.base, value)
}
