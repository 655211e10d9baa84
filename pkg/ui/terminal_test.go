package ui

import (
	"bytes"
	"testing"
)

func stubTerminal(t *testing.T, tty bool) *bytes.Buffer {
	t.Helper()
	origIsTerminal, origOut, origStdin := isTerminal, termOut, stdinFD
	t.Cleanup(func() {
		isTerminal, termOut, stdinFD = origIsTerminal, origOut, origStdin
	})

	var out bytes.Buffer
	termOut = &out
	// A negative stdin fd keeps echo handling away from the test runner's terminal.
	stdinFD = func() int { return -1 }
	isTerminal = func(fd int) bool { return tty && fd >= 0 }
	return &out
}

func TestEnableSingleViewNoTTY(t *testing.T) {
	out := stubTerminal(t, false)
	restore := EnableSingleView()
	restore()
	if out.Len() != 0 {
		t.Fatalf("expected no escape sequences for non-tty output, got %q", out.String())
	}
	if IsTerminal() {
		t.Fatalf("stubbed stdout should not be a terminal")
	}
}

func TestEnableSingleViewTTY(t *testing.T) {
	out := stubTerminal(t, true)
	restore := EnableSingleView()
	if got := out.String(); got != altScreenOn+cursorHide {
		t.Fatalf("unexpected setup sequence %q", got)
	}
	out.Reset()
	restore()
	restore()
	if got := out.String(); got != cursorShow+altScreenOff {
		t.Fatalf("restore should run exactly once, got %q", got)
	}
}
