// main.go - Main entry point for the BMC Engine

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"os"
)

func boilerPlate() {
	fmt.Println("BMC Engine - Nuvoton BMC SoC timer subsystem emulator")
	fmt.Println("(c) 2025 - 2026 BMC Engine contributors")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	var (
		configPath string
		snapPath   string
		demo       bool
	)
	flag.StringVar(&configPath, "config", "", "board configuration YAML file")
	flag.StringVar(&snapPath, "load", "", "machine snapshot to restore on startup")
	flag.BoolVar(&demo, "demo", false, "run a scripted timer demonstration instead of the monitor")
	flag.Parse()

	boilerPlate()

	cfg := DefaultMachineConfig()
	if configPath != "" {
		var err error
		cfg, err = LoadMachineConfig(configPath)
		if err != nil {
			fmt.Printf("Failed to load machine config: %v\n", err)
			os.Exit(1)
		}
	}

	machine, err := NewMachine(cfg)
	if err != nil {
		fmt.Printf("Failed to build machine: %v\n", err)
		os.Exit(1)
	}

	if snapPath != "" {
		snap, err := LoadSnapshotFromFile(snapPath)
		if err != nil {
			fmt.Printf("Failed to load snapshot: %v\n", err)
			os.Exit(1)
		}
		if err := RestoreSnapshot(machine, snap); err != nil {
			fmt.Printf("Failed to restore snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Restored %s, clock at %d ns\n", snapPath, snap.ClockNs)
	}

	if demo {
		runDemo(machine)
		return
	}

	host, err := NewTerminalHost("bmc> ")
	if err != nil {
		fmt.Printf("Failed to open terminal: %v\n", err)
		os.Exit(1)
	}
	defer host.Stop()

	monitor := NewMachineMonitor(machine, host)
	monitor.Run(host)
}

// runDemo exercises one timer module the way a guest would: a one-shot
// countdown, then a periodic one, advancing the virtual clock in between
// and reporting latched interrupts.
func runDemo(m *Machine) {
	tim0 := m.config.TimerModules[0]
	tcsr0 := tim0.Base + TIMER_TCSR0
	ticr0 := tim0.Base + TIMER_TICR0
	tdr0 := tim0.Base + TIMER_TDR0
	tisr := tim0.Base + TIMER_TISR

	fmt.Printf("\nOne-shot: %s ch0, reload 25000000 (1s at %d Hz)\n",
		tim0.Name, TIMER_REF_HZ)
	m.bus.Write32(tcsr0, 0) // prescale 1
	m.bus.Write32(ticr0, 25_000_000)
	m.bus.Write32(tcsr0, TCSR_CEN|TCSR_IE)

	for i := 0; i < 4; i++ {
		m.clock.Advance(250 * 1_000_000) // 250ms
		fmt.Printf("  t=%dms TDR=%d TISR=0x%x asserted=%v\n",
			m.clock.Now()/1_000_000,
			m.bus.Read32(tdr0),
			m.bus.Read32(tisr),
			m.intc.Pending())
	}

	m.bus.Write32(tisr, 1) // acknowledge

	fmt.Printf("\nPeriodic: %s ch0, reload 2500000 (100ms)\n", tim0.Name)
	m.bus.Write32(ticr0, 2_500_000)
	m.bus.Write32(tcsr0, TCSR_CEN|TCSR_IE|TCSR_PERIODIC)

	for i := 0; i < 3; i++ {
		m.clock.Advance(100 * 1_000_000)
		fmt.Printf("  t=%dms TISR=0x%x (ack)\n",
			m.clock.Now()/1_000_000, m.bus.Read32(tisr))
		m.bus.Write32(tisr, 1)
	}

	m.bus.Write32(tcsr0, 0) // pause
	fmt.Printf("\nPaused with TDR=%d remaining\n", m.bus.Read32(tdr0))
}
