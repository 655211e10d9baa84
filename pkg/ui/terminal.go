package ui

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	altScreenOn  = "\033[?1049h"
	altScreenOff = "\033[?1049l"
	cursorHide   = "\033[?25l"
	cursorShow   = "\033[?25h"
)

// Allow tests to run without a real TTY.
var (
	isTerminal           = term.IsTerminal
	termOut    io.Writer = os.Stdout
	stdoutFD             = func() int { return int(os.Stdout.Fd()) }
	stdinFD              = func() int { return int(os.Stdin.Fd()) }
)

// EnableSingleView switches a TTY stdout to the alternate screen with the
// cursor hidden and stdin echo off. The returned func restores the terminal
// and is safe to call more than once.
// When stdout is not a terminal nothing changes, so piped output stays plain.
func EnableSingleView() func() {
	if !isTerminal(stdoutFD()) {
		return func() {}
	}

	fmt.Fprint(termOut, altScreenOn)
	fmt.Fprint(termOut, cursorHide)

	var restore []func()
	if fd := stdinFD(); isTerminal(fd) {
		if undoEcho, err := disableInputEcho(fd); err != nil {
			log.Printf("unable to suppress stdin echo: %v", err)
		} else if undoEcho != nil {
			restore = append(restore, undoEcho)
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(restore) - 1; i >= 0; i-- {
				restore[i]()
			}
			fmt.Fprint(termOut, cursorShow)
			fmt.Fprint(termOut, altScreenOff)
		})
	}
}

// IsTerminal reports whether stdout is attached to a TTY.
func IsTerminal() bool {
	return isTerminal(stdoutFD())
}
