// timer_constants.go - Register map and bit definitions for the BMC timer module

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

package main

// Each timer module (TIM) instance holds five 25 MHz countdown channels.
const (
	TIMERS_PER_MODULE = 5
	TIMER_REF_HZ      = 25_000_000
	NS_PER_SECOND     = 1_000_000_000

	// Reference clock period in nanoseconds before prescaling.
	TIMER_TICK_NS = NS_PER_SECOND / TIMER_REF_HZ
)

// Register offsets within a timer module's 4KB region. All registers are
// 32 bits wide and must be accessed with aligned 32-bit loads/stores.
const (
	TIMER_TCSR0 = 0x00 // Channel 0 control and status
	TIMER_TCSR1 = 0x04 // Channel 1 control and status
	TIMER_TICR0 = 0x08 // Channel 0 initial count (reload)
	TIMER_TICR1 = 0x0C // Channel 1 initial count (reload)
	TIMER_TDR0  = 0x10 // Channel 0 current count (read-only)
	TIMER_TDR1  = 0x14 // Channel 1 current count (read-only)
	TIMER_TISR  = 0x18 // Interrupt status, one bit per channel, W1C
	TIMER_WTCR  = 0x1C // Watchdog control (stored, not implemented)
	TIMER_TCSR2 = 0x20 // Channel 2 control and status
	TIMER_TCSR3 = 0x24 // Channel 3 control and status
	TIMER_TICR2 = 0x28 // Channel 2 initial count
	TIMER_TICR3 = 0x2C // Channel 3 initial count
	TIMER_TDR2  = 0x30 // Channel 2 current count (read-only)
	TIMER_TDR3  = 0x34 // Channel 3 current count (read-only)
	TIMER_TCSR4 = 0x40 // Channel 4 control and status
	TIMER_TICR4 = 0x48 // Channel 4 initial count
	TIMER_TDR4  = 0x50 // Channel 4 current count (read-only)

	TIMER_REGION_SIZE = 0x1000
)

// TCSR bit fields.
const (
	TCSR_CEN           = 1 << 30     // Count enable
	TCSR_IE            = 1 << 29     // Interrupt enable
	TCSR_PERIODIC      = 1 << 27     // Periodic mode (one-shot when clear)
	TCSR_CRST          = 1 << 26     // Counter reset request (self-clearing)
	TCSR_CACT          = 1 << 25     // Counter active (read-only status)
	TCSR_RSVD          = 0x21ffff00  // Reserved, reads/writes as zero
	TCSR_PRESCALE_MASK = 0x000000ff  // Reference clock divider minus one
)

// Reset defaults.
const (
	TCSR_RESET_VALUE = 0x00000005
	TICR_RESET_VALUE = 0x00000000
	TISR_RESET_VALUE = 0x00000000
	WTCR_RESET_VALUE = 0x00000400
)
