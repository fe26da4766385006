// machine_test.go - Board-level integration tests driven through the bus

package main

import (
	"bytes"
	"testing"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	silenceDiagnostics(t)

	m, err := NewMachine(DefaultMachineConfig())
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

// One-shot countdown driven entirely through bus addresses: program,
// enable, advance past the deadline, observe the latched status and the
// raised line, then acknowledge.
func TestMachineOneShotThroughBus(t *testing.T) {
	m := newTestMachine(t)
	base := m.config.TimerModules[0].Base

	m.bus.Write32(base+TIMER_TCSR0, 0) // prescale 1
	m.bus.Write32(base+TIMER_TICR0, 2500)
	m.bus.Write32(base+TIMER_TCSR0, TCSR_CEN|TCSR_IE)

	m.clock.Advance(2499 * TIMER_TICK_NS)
	if got := m.bus.Read32(base + TIMER_TISR); got != 0 {
		t.Fatalf("TISR = 0x%x one tick early, want 0", got)
	}
	if got := m.bus.Read32(base + TIMER_TDR0); got != 1 {
		t.Fatalf("TDR = %d one tick early, want 1", got)
	}

	m.clock.Advance(TIMER_TICK_NS)
	if got := m.bus.Read32(base + TIMER_TISR); got != 1 {
		t.Fatalf("TISR = 0x%x at deadline, want 1", got)
	}
	if !m.intc.Level(m.config.TimerModules[0].IRQBase) {
		t.Fatal("IRQ line low after one-shot expiry with IE set")
	}
	if got := m.bus.Read32(base + TIMER_TCSR0); got&TCSR_CEN != 0 {
		t.Fatal("CEN still set after one-shot expiry")
	}

	m.bus.Write32(base+TIMER_TISR, 1)
	if got := m.bus.Read32(base + TIMER_TISR); got != 0 {
		t.Fatalf("TISR = 0x%x after acknowledge, want 0", got)
	}
	if m.intc.Level(m.config.TimerModules[0].IRQBase) {
		t.Fatal("IRQ line still high after acknowledge")
	}
}

// Pausing with CEN and resuming must complete only the remaining ticks.
func TestMachinePauseResumeThroughBus(t *testing.T) {
	m := newTestMachine(t)
	base := m.config.TimerModules[0].Base

	m.bus.Write32(base+TIMER_TCSR2, 0) // prescale 1
	m.bus.Write32(base+TIMER_TICR2, 1000)
	m.bus.Write32(base+TIMER_TCSR2, TCSR_CEN)

	m.clock.Advance(400 * TIMER_TICK_NS)
	m.bus.Write32(base+TIMER_TCSR2, 0) // pause

	if got := m.bus.Read32(base + TIMER_TDR2); got != 600 {
		t.Fatalf("TDR = %d while paused, want 600", got)
	}

	// Time passing while paused must not consume ticks.
	m.clock.Advance(10_000 * TIMER_TICK_NS)
	if got := m.bus.Read32(base + TIMER_TDR2); got != 600 {
		t.Fatalf("TDR = %d after idle time, want 600", got)
	}
	if got := m.bus.Read32(base + TIMER_TISR); got != 0 {
		t.Fatalf("TISR = 0x%x while paused, want 0", got)
	}

	m.bus.Write32(base+TIMER_TCSR2, TCSR_CEN) // resume
	m.clock.Advance(599 * TIMER_TICK_NS)
	if got := m.bus.Read32(base + TIMER_TISR); got != 0 {
		t.Fatalf("TISR = 0x%x one tick before resumed deadline, want 0", got)
	}
	m.clock.Advance(TIMER_TICK_NS)
	if got := m.bus.Read32(base + TIMER_TISR); got != 1<<2 {
		t.Fatalf("TISR = 0x%x at resumed deadline, want 0x4", got)
	}
}

// Channels on different modules run off the same clock but keep fully
// independent state and interrupt lines.
func TestMachineModulesIndependent(t *testing.T) {
	m := newTestMachine(t)
	tim0 := m.config.TimerModules[0]
	tim1 := m.config.TimerModules[1]

	m.bus.Write32(tim0.Base+TIMER_TCSR0, 0)
	m.bus.Write32(tim0.Base+TIMER_TICR0, 100)
	m.bus.Write32(tim0.Base+TIMER_TCSR0, TCSR_CEN|TCSR_IE)

	m.bus.Write32(tim1.Base+TIMER_TCSR0, 0)
	m.bus.Write32(tim1.Base+TIMER_TICR0, 300)
	m.bus.Write32(tim1.Base+TIMER_TCSR0, TCSR_CEN|TCSR_IE)

	m.clock.Advance(100 * TIMER_TICK_NS)
	if got := m.bus.Read32(tim0.Base + TIMER_TISR); got != 1 {
		t.Fatalf("tim0 TISR = 0x%x, want 1", got)
	}
	if got := m.bus.Read32(tim1.Base + TIMER_TISR); got != 0 {
		t.Fatalf("tim1 TISR = 0x%x, want 0", got)
	}
	if !m.intc.Level(tim0.IRQBase) || m.intc.Level(tim1.IRQBase) {
		t.Fatal("interrupt lines do not match per-module expiry")
	}

	m.clock.Advance(200 * TIMER_TICK_NS)
	if got := m.bus.Read32(tim1.Base + TIMER_TISR); got != 1 {
		t.Fatalf("tim1 TISR = 0x%x after its deadline, want 1", got)
	}
}

// The interrupt controller's status words are readable over the bus.
func TestMachineInterruptStatusReadable(t *testing.T) {
	m := newTestMachine(t)
	tim0 := m.config.TimerModules[0]

	m.bus.Write32(tim0.Base+TIMER_TCSR0, 0)
	m.bus.Write32(tim0.Base+TIMER_TICR0, 10)
	m.bus.Write32(tim0.Base+TIMER_TCSR0, TCSR_CEN|TCSR_IE)
	m.clock.Advance(10 * TIMER_TICK_NS)

	word := uint32(tim0.IRQBase / 32)
	bit := uint32(tim0.IRQBase % 32)
	got := m.bus.Read32(INTC_STATUS_BASE + word*4)
	if got&(1<<bit) == 0 {
		t.Fatalf("status word %d = 0x%08x, bit %d clear", word, got, bit)
	}

	m.bus.Write32(tim0.Base+TIMER_TISR, 1)
	got = m.bus.Read32(INTC_STATUS_BASE + word*4)
	if got&(1<<bit) != 0 {
		t.Fatalf("status word %d = 0x%08x after acknowledge, bit %d still set", word, got, bit)
	}
}

func TestMachineResetRestoresPowerOnState(t *testing.T) {
	m := newTestMachine(t)
	base := m.config.TimerModules[0].Base

	m.bus.Write32(0x1000, 0xDEADBEEF)
	m.bus.Write32(base+TIMER_TCSR0, 0)
	m.bus.Write32(base+TIMER_TICR0, 500)
	m.bus.Write32(base+TIMER_TCSR0, TCSR_CEN|TCSR_IE)
	m.clock.Advance(100 * TIMER_TICK_NS)

	m.Reset()

	if got := m.bus.Read32(0x1000); got != 0 {
		t.Fatalf("RAM = 0x%x after reset, want 0", got)
	}
	if got := m.bus.Read32(base + TIMER_TCSR0); got != TCSR_RESET_VALUE {
		t.Fatalf("TCSR = 0x%08x after reset, want 0x%08x", got, TCSR_RESET_VALUE)
	}
	if got := m.bus.Read32(base + TIMER_TISR); got != 0 {
		t.Fatalf("TISR = 0x%x after reset, want 0", got)
	}
	if pending := m.intc.Pending(); len(pending) != 0 {
		t.Fatalf("interrupt lines %v still high after reset", pending)
	}
	if n := m.clock.PendingTimers(); n != 0 {
		t.Fatalf("%d clock callbacks pending after reset", n)
	}

	// A board that was reset still works.
	m.bus.Write32(base+TIMER_TCSR0, 0)
	m.bus.Write32(base+TIMER_TICR0, 50)
	m.bus.Write32(base+TIMER_TCSR0, TCSR_CEN)
	m.clock.Advance(50 * TIMER_TICK_NS)
	if got := m.bus.Read32(base + TIMER_TISR); got != 1 {
		t.Fatalf("TISR = 0x%x after post-reset countdown, want 1", got)
	}
}

// The console port forwards stored bytes to its host stream and reports
// the transmitter permanently ready.
func TestMachineConsoleOutput(t *testing.T) {
	m := newTestMachine(t)
	var buf bytes.Buffer
	m.console.out = &buf

	for _, b := range []byte("ok\n") {
		m.bus.Write32(CONSOLE_DATA, uint32(b))
	}
	if buf.String() != "ok\n" {
		t.Fatalf("console wrote %q, want %q", buf.String(), "ok\n")
	}

	if got := m.bus.Read32(CONSOLE_STATUS); got&CONSOLE_TX_READY == 0 {
		t.Fatalf("console status = 0x%x, transmitter not ready", got)
	}
	m.bus.Write32(CONSOLE_STATUS, 1) // read-only, dropped with a diagnostic
	if got := m.bus.Read32(CONSOLE_STATUS); got != CONSOLE_TX_READY {
		t.Fatalf("console status = 0x%x after rejected write, want 0x%x",
			got, uint32(CONSOLE_TX_READY))
	}
}

func TestMachineTimerModuleLookup(t *testing.T) {
	m := newTestMachine(t)
	if m.TimerModule("tim1") == nil {
		t.Fatal("lookup of tim1 failed")
	}
	if m.TimerModule("tim9") != nil {
		t.Fatal("lookup of an unknown module returned a module")
	}
}
