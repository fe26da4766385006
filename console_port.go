// console_port.go - Memory-mapped debug console output

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

package main

import "io"

// ConsolePort is a write-only character output port, the minimal stand-in
// for a UART transmit register. Guests store one byte per 32-bit write to
// CONSOLE_DATA; the byte goes straight to the host stream. The status
// register always reads ready since host output never blocks the guest.
type ConsolePort struct {
	out io.Writer
}

func NewConsolePort(out io.Writer) *ConsolePort {
	return &ConsolePort{out: out}
}

func (c *ConsolePort) HandleRead(addr uint32) uint32 {
	switch addr {
	case CONSOLE_STATUS:
		return CONSOLE_TX_READY
	case CONSOLE_DATA:
		return 0
	}
	logGuestError("console: invalid offset 0x%04x", addr-CONSOLE_DATA)
	return 0
}

func (c *ConsolePort) HandleWrite(addr uint32, value uint32) {
	switch addr {
	case CONSOLE_DATA:
		c.out.Write([]byte{byte(value)})
	case CONSOLE_STATUS:
		logGuestError("console: status register is read-only")
	default:
		logGuestError("console: invalid offset 0x%04x", addr-CONSOLE_DATA)
	}
}
