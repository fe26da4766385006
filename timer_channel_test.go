// timer_channel_test.go - Tests for countdown channel timekeeping

package main

import "testing"

func TestPrescalerRange(t *testing.T) {
	tm, _, _ := newTestTimerModule(t)
	ch := tm.channels[0]

	ch.tcsr = 0
	if p := ch.prescaler(); p != 1 {
		t.Fatalf("prescaler() = %d with field 0, want 1", p)
	}
	ch.tcsr = 0xff
	if p := ch.prescaler(); p != 256 {
		t.Fatalf("prescaler() = %d with field 255, want 256", p)
	}
}

func TestCountToNsUsesPrescaler(t *testing.T) {
	tm, _, _ := newTestTimerModule(t)
	ch := tm.channels[0]

	ch.tcsr = 0
	if ns := ch.countToNs(25_000_000); ns != NS_PER_SECOND {
		t.Fatalf("countToNs(25e6) = %d ns, want 1s", ns)
	}

	ch.tcsr = 9 // divide by 10
	if ns := ch.countToNs(2_500_000); ns != NS_PER_SECOND {
		t.Fatalf("countToNs(2.5e6, /10) = %d ns, want 1s", ns)
	}
}

// The full 32-bit count at the slowest prescale must not overflow: the
// intermediate product reaches ~4.4e13 ns times 256.
func TestCountToNsWideArithmetic(t *testing.T) {
	tm, _, _ := newTestTimerModule(t)
	ch := tm.channels[0]
	ch.tcsr = 0xff

	ns := ch.countToNs(0xFFFFFFFF)
	want := int64(0xFFFFFFFF) * TIMER_TICK_NS * 256
	if ns != want {
		t.Fatalf("countToNs(max) = %d, want %d", ns, want)
	}
	if ns <= 0 {
		t.Fatal("countToNs(max) overflowed")
	}
}

func TestNsToCountTruncates(t *testing.T) {
	tm, _, _ := newTestTimerModule(t)
	ch := tm.channels[0]
	ch.tcsr = 0

	// 39ns is less than one 40ns tick.
	if c := ch.nsToCount(39); c != 0 {
		t.Fatalf("nsToCount(39) = %d, want 0", c)
	}
	if c := ch.nsToCount(79); c != 1 {
		t.Fatalf("nsToCount(79) = %d, want 1", c)
	}
}

func TestNsToCountRoundTrip(t *testing.T) {
	tm, _, _ := newTestTimerModule(t)
	ch := tm.channels[0]

	for _, prescale := range []uint32{0, 1, 9, 0xff} {
		ch.tcsr = prescale
		for _, count := range []uint32{0, 1, 1000, 25_000_000} {
			if got := ch.nsToCount(ch.countToNs(count)); got != count {
				t.Fatalf("prescale %d: round trip of %d = %d", prescale, count, got)
			}
		}
	}
}

func TestStartSetsCountActive(t *testing.T) {
	tm, _, _ := newTestTimerModule(t)

	tm.WriteRegister(TIMER_TICR0, 1000)
	enable(tm, TIMER_TCSR0, 0)

	if tm.ReadRegister(TIMER_TCSR0)&TCSR_CACT == 0 {
		t.Fatal("CACT clear on a running channel")
	}

	tm.WriteRegister(TIMER_TCSR0, 0)
	if tm.ReadRegister(TIMER_TCSR0)&TCSR_CACT != 0 {
		t.Fatal("CACT still set after pause")
	}
}

func TestLiveCounterDecreasesMonotonically(t *testing.T) {
	tm, clock, _ := newTestTimerModule(t)

	tm.WriteRegister(TIMER_TCSR0, 0) // prescale 1
	tm.WriteRegister(TIMER_TICR0, 1000)
	enable(tm, TIMER_TCSR0, 0)

	prev := tm.ReadRegister(TIMER_TDR0)
	if prev != 1000 {
		t.Fatalf("TDR immediately after enable = %d, want 1000", prev)
	}
	for i := 0; i < 5; i++ {
		clock.Advance(100 * TIMER_TICK_NS)
		got := tm.ReadRegister(TIMER_TDR0)
		if got >= prev {
			t.Fatalf("TDR did not decrease: %d then %d", prev, got)
		}
		prev = got
	}
}

func TestPauseCapturesExactRemainder(t *testing.T) {
	tm, clock, _ := newTestTimerModule(t)

	tm.WriteRegister(TIMER_TCSR0, 0) // prescale 1
	tm.WriteRegister(TIMER_TICR0, 1000)
	enable(tm, TIMER_TCSR0, 0)

	clock.Advance(300 * TIMER_TICK_NS)
	tm.WriteRegister(TIMER_TCSR0, 0)

	ch := tm.channels[0]
	want := int64(700) * TIMER_TICK_NS
	if ch.remainingNs != want {
		t.Fatalf("remainingNs = %d after pause, want %d", ch.remainingNs, want)
	}
	if tm.ReadRegister(TIMER_TDR0) != 700 {
		t.Fatalf("TDR = %d while paused, want 700", tm.ReadRegister(TIMER_TDR0))
	}
}

// Property 4: resuming counts down only the remainder, not the full reload.
func TestResumeFinishesRemainderOnly(t *testing.T) {
	tm, clock, _ := newTestTimerModule(t)

	tm.WriteRegister(TIMER_TCSR0, 0) // prescale 1
	tm.WriteRegister(TIMER_TICR0, 1000)
	enable(tm, TIMER_TCSR0, 0)
	clock.Advance(300 * TIMER_TICK_NS)
	tm.WriteRegister(TIMER_TCSR0, 0)

	enable(tm, TIMER_TCSR0, 0)
	clock.Advance(699 * TIMER_TICK_NS)
	if tm.tisr != 0 {
		t.Fatal("expired before the remainder elapsed")
	}
	clock.Advance(1 * TIMER_TICK_NS)
	if tm.tisr&1 == 0 {
		t.Fatal("did not expire when the remainder elapsed")
	}
}

func TestPausePastDeadlinePanics(t *testing.T) {
	tm, clock, _ := newTestTimerModule(t)

	tm.WriteRegister(TIMER_TICR0, 10)
	enable(tm, TIMER_TCSR0, 0)

	// Move time past the deadline behind the scheduler's back. Pausing now
	// is a scheduler integration bug and must trip the assertion.
	ch := tm.channels[0]
	ch.deadlineNs = clock.Now()

	defer func() {
		if recover() == nil {
			t.Fatal("pause past the deadline did not panic")
		}
	}()
	tm.WriteRegister(TIMER_TCSR0, 0)
}

// A stale callback that fires after the guest disabled the channel must
// not latch an interrupt.
func TestStaleCallbackAfterDisableIsIgnored(t *testing.T) {
	tm, clock, _ := newTestTimerModule(t)

	tm.WriteRegister(TIMER_TICR0, 10)
	enable(tm, TIMER_TCSR0, 0)

	ch := tm.channels[0]
	ch.tcsr &^= TCSR_CEN // disable without cancelling, as a race would

	clock.Advance(10 * TIMER_TICK_NS)
	if tm.tisr != 0 {
		t.Fatalf("stale callback latched TISR=0x%x", tm.tisr)
	}
}
