package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalHost puts the host terminal in raw mode and exposes a line
// editor over it for the machine monitor. Only instantiated in main.go for
// interactive use — never in tests.
type TerminalHost struct {
	fd           int
	oldTermState *term.State
	terminal     *term.Terminal
}

// stdinStdout glues stdin and stdout into the single ReadWriter that
// term.Terminal expects.
type stdinStdout struct{}

func (stdinStdout) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdinStdout) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// NewTerminalHost switches the controlling terminal to raw mode and builds
// a line editor with the given prompt. Call Stop to restore the terminal.
func NewTerminalHost(prompt string) (*TerminalHost, error) {
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("terminal_host: failed to set raw mode: %w", err)
	}

	h := &TerminalHost{
		fd:           fd,
		oldTermState: oldState,
		terminal:     term.NewTerminal(stdinStdout{}, prompt),
	}
	return h, nil
}

// ReadLine returns the next edited input line. io.EOF means the user hit
// Ctrl-D on an empty line.
func (h *TerminalHost) ReadLine() (string, error) {
	line, err := h.terminal.ReadLine()
	if err == io.EOF {
		return "", io.EOF
	}
	return line, err
}

// Write sends output through the terminal so it renders correctly in raw
// mode (LF expanded to CRLF).
func (h *TerminalHost) Write(p []byte) (int, error) {
	return h.terminal.Write(p)
}

// Stop restores the terminal to its original state.
func (h *TerminalHost) Stop() {
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
