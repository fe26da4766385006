// machine.go - Machine assembly: bus, clock, interrupt controller, timers

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
)

// Machine wires the virtual clock, bus, interrupt controller, timer modules
// and debug console into one emulated board.
type Machine struct {
	config MachineConfig

	clock   *VirtualClock
	bus     *MachineBus
	intc    *InterruptController
	timers  []*TimerModule
	console *ConsolePort
}

// NewMachine brings up a machine from a validated configuration and seals
// the bus.
func NewMachine(cfg MachineConfig) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("machine config: %w", err)
	}

	m := &Machine{
		config:  cfg,
		clock:   NewVirtualClock(),
		bus:     NewMachineBusSize(cfg.MemorySize),
		intc:    NewInterruptController(),
		console: NewConsolePort(os.Stdout),
	}

	for _, tc := range cfg.TimerModules {
		var irqs [TIMERS_PER_MODULE]IRQLine
		for ch := range irqs {
			irqs[ch] = m.intc.Line(tc.IRQBase + ch)
		}
		tm := NewTimerModule(tc.Name, tc.Base, m.clock, irqs)
		m.timers = append(m.timers, tm)

		m.bus.MapIO(tc.Base, tc.Base+TIMER_REGION_SIZE-1,
			tm.HandleRead,
			tm.HandleWrite)
	}

	m.bus.MapIO(INTC_STATUS_BASE, INTC_STATUS_END,
		m.intc.HandleRead,
		m.intc.HandleWrite)

	m.bus.MapIO(CONSOLE_DATA, CONSOLE_STATUS+3,
		m.console.HandleRead,
		m.console.HandleWrite)

	m.bus.Seal()
	return m, nil
}

// TimerModule returns the module with the given name, or nil.
func (m *Machine) TimerModule(name string) *TimerModule {
	for _, tm := range m.timers {
		if tm.name == name {
			return tm
		}
	}
	return nil
}
