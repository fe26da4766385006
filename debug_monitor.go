// debug_monitor.go - Machine Monitor core (interactive state inspection)

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"io"
	"strings"
)

// LineSource yields edited input lines; io.EOF ends the session.
type LineSource interface {
	ReadLine() (string, error)
}

// MachineMonitor drives a machine interactively: register pokes, virtual
// clock advancement, state display, snapshots, reset. It owns no terminal
// state; main wires it to a TerminalHost, tests to a scripted LineSource.
type MachineMonitor struct {
	machine *Machine
	out     io.Writer
}

func NewMachineMonitor(m *Machine, out io.Writer) *MachineMonitor {
	return &MachineMonitor{machine: m, out: out}
}

// Run reads and executes commands until quit or EOF.
func (mon *MachineMonitor) Run(input LineSource) {
	fmt.Fprintf(mon.out, "BMC Engine monitor. Type 'help' for commands.\n")
	for {
		line, err := input.ReadLine()
		if err != nil {
			return
		}
		if mon.Execute(line) {
			return
		}
	}
}

// Execute runs one command line. Returns true when the session should end.
func (mon *MachineMonitor) Execute(line string) bool {
	cmd := ParseCommand(line)
	switch cmd.Name {
	case "":
		return false
	case "help", "?":
		mon.cmdHelp()
	case "rd":
		mon.cmdRead(cmd.Args)
	case "wr":
		mon.cmdWrite(cmd.Args)
	case "adv":
		mon.cmdAdvance(cmd.Args)
	case "state":
		mon.cmdState()
	case "irq":
		mon.cmdIRQ()
	case "save":
		mon.cmdSave(cmd.Args)
	case "load":
		mon.cmdLoad(cmd.Args)
	case "reset":
		mon.machine.Reset()
		fmt.Fprintf(mon.out, "machine reset\n")
	case "quit", "q", "exit":
		return true
	default:
		fmt.Fprintf(mon.out, "unknown command %q, try 'help'\n", cmd.Name)
	}
	return false
}

func (mon *MachineMonitor) cmdHelp() {
	fmt.Fprint(mon.out, `Commands:
  rd <addr>            read a 32-bit register or RAM word
  wr <addr> <value>    write a 32-bit register or RAM word
  adv <ns>             advance the virtual clock by <ns> nanoseconds
  state                show timer module and clock state
  irq                  show asserted interrupt lines
  save <file>          save a machine snapshot
  load <file>          restore a machine snapshot
  reset                hard-reset the machine
  quit                 leave the monitor
Addresses and values accept $hex, 0xhex, bare hex or #decimal.
`)
}

func (mon *MachineMonitor) cmdRead(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(mon.out, "usage: rd <addr>\n")
		return
	}
	addr, ok := ParseAddress(args[0])
	if !ok {
		fmt.Fprintf(mon.out, "bad address %q\n", args[0])
		return
	}
	value := mon.machine.bus.Read32(uint32(addr))
	fmt.Fprintf(mon.out, "0x%08x: 0x%08x\n", uint32(addr), value)
}

func (mon *MachineMonitor) cmdWrite(args []string) {
	if len(args) != 2 {
		fmt.Fprintf(mon.out, "usage: wr <addr> <value>\n")
		return
	}
	addr, ok := ParseAddress(args[0])
	if !ok {
		fmt.Fprintf(mon.out, "bad address %q\n", args[0])
		return
	}
	value, ok := ParseAddress(args[1])
	if !ok {
		fmt.Fprintf(mon.out, "bad value %q\n", args[1])
		return
	}
	mon.machine.bus.Write32(uint32(addr), uint32(value))
	fmt.Fprintf(mon.out, "0x%08x <- 0x%08x\n", uint32(addr), uint32(value))
}

func (mon *MachineMonitor) cmdAdvance(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(mon.out, "usage: adv <ns>\n")
		return
	}
	ns, ok := ParseAddress(args[0])
	if !ok {
		fmt.Fprintf(mon.out, "bad duration %q\n", args[0])
		return
	}
	mon.machine.clock.Advance(int64(ns))
	fmt.Fprintf(mon.out, "clock now %d ns\n", mon.machine.clock.Now())
}

func (mon *MachineMonitor) cmdState() {
	m := mon.machine
	fmt.Fprintf(mon.out, "clock: %d ns, %d pending callback(s)\n",
		m.clock.Now(), m.clock.PendingTimers())
	for _, tm := range m.timers {
		fmt.Fprintf(mon.out, "%s @ 0x%08x  TISR=0x%08x WTCR=0x%08x\n",
			tm.name, tm.base, tm.tisr, tm.wtcr)
		for _, ch := range tm.channels {
			state := "stopped"
			if ch.timer != nil {
				state = "running"
			}
			fmt.Fprintf(mon.out,
				"  ch%d %-7s TCSR=0x%08x TICR=0x%08x TDR=0x%08x\n",
				ch.index, state, ch.tcsr, ch.ticr, ch.readTDR())
		}
	}
}

func (mon *MachineMonitor) cmdIRQ() {
	pending := mon.machine.intc.Pending()
	if len(pending) == 0 {
		fmt.Fprintf(mon.out, "no lines asserted\n")
		return
	}
	lines := make([]string, len(pending))
	for i, irq := range pending {
		lines[i] = fmt.Sprintf("%d", irq)
	}
	fmt.Fprintf(mon.out, "asserted: %s\n", strings.Join(lines, " "))
}

func (mon *MachineMonitor) cmdSave(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(mon.out, "usage: save <file>\n")
		return
	}
	snap := TakeSnapshot(mon.machine)
	if err := SaveSnapshotToFile(snap, args[0]); err != nil {
		fmt.Fprintf(mon.out, "save failed: %v\n", err)
		return
	}
	fmt.Fprintf(mon.out, "saved %s\n", args[0])
}

func (mon *MachineMonitor) cmdLoad(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(mon.out, "usage: load <file>\n")
		return
	}
	snap, err := LoadSnapshotFromFile(args[0])
	if err != nil {
		fmt.Fprintf(mon.out, "load failed: %v\n", err)
		return
	}
	if err := RestoreSnapshot(mon.machine, snap); err != nil {
		fmt.Fprintf(mon.out, "restore failed: %v\n", err)
		return
	}
	fmt.Fprintf(mon.out, "restored %s, clock at %d ns\n", args[0], snap.ClockNs)
}
