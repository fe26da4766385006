// guest_diag.go - Diagnostic reporting for guest programming errors

/*
BMC Engine - Nuvoton BMC SoC timer subsystem emulator

(c) 2025 - 2026 BMC Engine contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Guest misbehaviour never aborts emulation; it is masked or ignored and
// reported here. Two classes exist: guest programming errors (bad offsets,
// reserved bits, writes to read-only registers) and use of features the
// model accepts but does not implement.

var (
	diagMu     sync.Mutex
	diagOutput io.Writer = os.Stderr
)

// setDiagOutput redirects diagnostics, returning the previous writer.
// Tests use this to capture or silence output.
func setDiagOutput(w io.Writer) io.Writer {
	diagMu.Lock()
	defer diagMu.Unlock()
	prev := diagOutput
	diagOutput = w
	return prev
}

func logGuestError(format string, args ...any) {
	diagMu.Lock()
	defer diagMu.Unlock()
	fmt.Fprintf(diagOutput, "[guest-error] "+format+"\n", args...)
}

func logUnimp(format string, args ...any) {
	diagMu.Lock()
	defer diagMu.Unlock()
	fmt.Fprintf(diagOutput, "[unimplemented] "+format+"\n", args...)
}
