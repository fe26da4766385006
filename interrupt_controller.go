// interrupt_controller.go - Level-sensitive interrupt line aggregation

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

package main

import "sync"

// Interrupt line numbering follows the NPCM7xx GIC SPI layout: the five
// channels of timer module i drive lines TIMER0_IRQ + 5*i + channel.
const (
	NUM_IRQ_LINES = 160
	TIMER0_IRQ    = 32
)

// IRQLine is a single level-sensitive interrupt line. Devices call Set on
// every recomputation; setting the same level twice is harmless.
type IRQLine interface {
	Set(level bool)
}

// InterruptController collects the machine's level-sensitive lines. It
// stands in for the GIC distributor: it records line levels and exposes the
// pending set, but does not model CPU delivery.
type InterruptController struct {
	mu     sync.Mutex
	levels [NUM_IRQ_LINES]bool
}

func NewInterruptController() *InterruptController {
	return &InterruptController{}
}

// Line returns the IRQLine for interrupt number irq. The returned handle is
// valid for the controller's lifetime.
func (ic *InterruptController) Line(irq int) IRQLine {
	if irq < 0 || irq >= NUM_IRQ_LINES {
		return noopIRQLine{}
	}
	return &icLine{ic: ic, irq: irq}
}

// Level reports the current level of interrupt number irq.
func (ic *InterruptController) Level(irq int) bool {
	if irq < 0 || irq >= NUM_IRQ_LINES {
		return false
	}
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.levels[irq]
}

// Pending returns the numbers of all currently asserted lines, ascending.
func (ic *InterruptController) Pending() []int {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	var pending []int
	for irq, level := range ic.levels {
		if level {
			pending = append(pending, irq)
		}
	}
	return pending
}

// HandleRead exposes line levels as a read-only register block: word n holds
// lines 32n..32n+31, bit position = line number mod 32.
func (ic *InterruptController) HandleRead(addr uint32) uint32 {
	word := int(addr-INTC_STATUS_BASE) / 4
	if word < 0 || word >= NUM_IRQ_LINES/32 {
		logGuestError("intc: invalid offset 0x%04x", addr-INTC_STATUS_BASE)
		return 0
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()

	var value uint32
	for bit := 0; bit < 32; bit++ {
		if ic.levels[word*32+bit] {
			value |= 1 << bit
		}
	}
	return value
}

// HandleWrite rejects all writes; the status block is read-only.
func (ic *InterruptController) HandleWrite(addr uint32, value uint32) {
	logGuestError("intc: register @ 0x%04x is read-only", addr-INTC_STATUS_BASE)
}

type icLine struct {
	ic  *InterruptController
	irq int
}

func (l *icLine) Set(level bool) {
	l.ic.mu.Lock()
	l.ic.levels[l.irq] = level
	l.ic.mu.Unlock()
}

// noopIRQLine swallows line updates for devices wired without a controller.
type noopIRQLine struct{}

func (noopIRQLine) Set(bool) {}
