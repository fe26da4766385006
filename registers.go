// registers.go - Centralized I/O register address map for the BMC Engine

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

/*
registers.go - Master I/O Register Address Map

This file provides a centralized reference for all memory-mapped I/O
regions in the BMC Engine. Individual device implementations define their
own detailed register constants in separate *_constants.go files.

MEMORY MAP OVERVIEW
===================

Address Range           Size    Device              Constants File
---------------------------------------------------------------------------
0x00000000-0x00FFFFFF   16MB    Main RAM            -
0xF0008000-0xF0008FFF   4KB     Timer Module 0      timer_constants.go
0xF0009000-0xF0009FFF   4KB     Timer Module 1      timer_constants.go
0xF000A000-0xF000AFFF   4KB     Timer Module 2      timer_constants.go
0xF1000000-0xF1000013   20B     IRQ status block    registers.go
0xF2000000-0xF2000007   8B      Debug console       registers.go

The timer module bases mirror the NPCM7xx address map. Each module's five
channels drive interrupt lines TIMER0_IRQ + 5*module + channel, matching
the GIC SPI assignment on real silicon.
*/

package main

const (
	TIM0_BASE = 0xF0008000
	TIM1_BASE = 0xF0009000
	TIM2_BASE = 0xF000A000

	NUM_TIMER_MODULES = 3

	// Read-only word array exposing interrupt line levels, 32 lines per
	// word. Provided for the monitor and for guests polling line state.
	INTC_STATUS_BASE = 0xF1000000
	INTC_STATUS_END  = INTC_STATUS_BASE + NUM_IRQ_LINES/32*4 - 1

	// Debug console: write a byte to DATA, poll STATUS for TX space.
	CONSOLE_DATA     = 0xF2000000
	CONSOLE_STATUS   = 0xF2000004
	CONSOLE_TX_READY = 1 << 0
)
