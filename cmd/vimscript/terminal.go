package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	ansiErrorStart = "\x1b[31m"
	ansiReset      = "\x1b[0m"
)

// terminalMessages prints echo output to out and error messages to errOut,
// highlighting errors only when errOut is an interactive terminal.
type terminalMessages struct {
	mu        sync.Mutex
	out       io.Writer
	errOut    io.Writer
	highlight bool
}

func newTerminalMessages(out, errOut io.Writer) *terminalMessages {
	return &terminalMessages{out: out, errOut: errOut, highlight: isTerminal(errOut) && os.Getenv("NO_COLOR") == ""}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (m *terminalMessages) ShowMessage(_ any, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintln(m.out, text)
}

func (m *terminalMessages) ShowErrorMessage(_ any, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.highlight {
		fmt.Fprintln(m.errOut, ansiErrorStart+text+ansiReset)
		return
	}
	fmt.Fprintln(m.errOut, text)
}
