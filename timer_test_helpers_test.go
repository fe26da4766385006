// timer_test_helpers_test.go - Shared fixtures for timer module tests

package main

import (
	"io"
	"os"
	"testing"
)

// newTestTimerModule builds one timer module at base 0 on a fresh virtual
// clock, channels wired to GIC lines TIMER0_IRQ..TIMER0_IRQ+4. Register
// offsets double as addresses. Diagnostics are silenced for the test.
func newTestTimerModule(t *testing.T) (*TimerModule, *VirtualClock, *InterruptController) {
	t.Helper()
	silenceDiagnostics(t)

	clock := NewVirtualClock()
	intc := NewInterruptController()
	var irqs [TIMERS_PER_MODULE]IRQLine
	for ch := range irqs {
		irqs[ch] = intc.Line(TIMER0_IRQ + ch)
	}
	tm := NewTimerModule("tim0", 0, clock, irqs)
	return tm, clock, intc
}

func silenceDiagnostics(t *testing.T) {
	t.Helper()
	prev := setDiagOutput(io.Discard)
	t.Cleanup(func() { setDiagOutput(prev) })
}

// chanIRQ returns the GIC line number of channel ch on the test module.
func chanIRQ(ch int) int {
	return TIMER0_IRQ + ch
}

func writeFileForTest(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// enable writes TCSR with the given extra flags plus CEN.
func enable(tm *TimerModule, tcsrOffset uint32, flags uint32) {
	tm.WriteRegister(tcsrOffset, TCSR_CEN|flags)
}
