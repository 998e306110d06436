// =============================================================================
// lineeditor.go - Line Editor with Dual-Mode Operation
// =============================================================================
//
// The REPL reads commands through a line editor that picks its input method
// from the terminal:
//
//   - Interactive mode: ergochat/readline with Emacs keybindings, persistent
//     history and Ctrl-R history search.
//   - Non-interactive mode: bufio.Scanner for piped input (scripts, Emacs
//     comint), printing the prompt manually to stdout.
//
// History is stored at ~/.julius_history with a 500-entry limit.
//
// =============================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	// historyFileName is the name of the history file in the user's home
	// directory.
	historyFileName = ".julius_history"

	// historySize is the maximum number of history entries to retain.
	historySize = 500
)

// GO CONCEPT: Interfaces and Structural Typing
// ---------------------------------------------
// readline.Instance and bufio.Scanner read input through different APIs.
// LineEditor wraps both behind GetLine/Close so the REPL never needs to
// know which one is in use.
//
// Compare with Python: Python uses duck typing. No interface declaration
// is needed; any object with a get_line method would do.

// LineEditor wraps line editing with dual-mode operation.
type LineEditor struct {
	// interactive is true when stdin is a TTY.
	interactive bool

	// rl is the readline instance used in interactive mode; nil otherwise.
	rl *readline.Instance

	// scanner reads lines from stdin in non-interactive mode; nil otherwise.
	scanner *bufio.Scanner
}

// NewLineEditor creates a LineEditor with automatic mode detection.
//
// Under Emacs (INSIDE_EMACS set) the editor is always non-interactive
// because Emacs provides its own line editing.
func NewLineEditor() *LineEditor {
	isInteractive := term.IsTerminal(int(os.Stdin.Fd())) &&
		os.Getenv("INSIDE_EMACS") == ""

	if !isInteractive {
		return &LineEditor{scanner: bufio.NewScanner(os.Stdin)}
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyPath(),
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		// Fall back to plain input rather than refusing to start.
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return &LineEditor{scanner: bufio.NewScanner(os.Stdin)}
	}

	return &LineEditor{interactive: true, rl: rl}
}

// GO CONCEPT: Sentinel Errors
// ---------------------------
// io.EOF is a predefined error value used as a signal: "no more input".
// GetLine returns it for Ctrl-D, Ctrl-C and exhausted pipes alike, so the
// REPL has a single exit condition to check.
//
// Compare with Python: input() raises EOFError at end of input, and
// Ctrl-C raises KeyboardInterrupt.

// GetLine reads a line of input with the given prompt. It returns io.EOF
// when input ends.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	fmt.Print(prompt)

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Close saves history and releases the terminal. It is safe to call more
// than once.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether the editor reads from a terminal.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}

// historyPath returns the location of the history file.
func historyPath() string {
	return filepath.Join(homeDir(), historyFileName)
}

// homeDir returns the current user's home directory, or "" if unknown.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
