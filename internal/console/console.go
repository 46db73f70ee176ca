// Package console implements the operator-facing input loop: a
// blocking line reader feeding a single-slot mailbox, plus colored
// print helpers for announcements and the prompt (fatih/color-backed
// ColorPrompt/ColorPrint, bufio.Scanner line reading).
package console

import (
	"bufio"
	"io"
	"sync"

	"github.com/fatih/color"
)

var (
	colPrompt = color.New(color.FgCyan, color.Bold)
	colPrint  = color.New(color.FgWhite)
	colWarn   = color.New(color.FgYellow)
	colError  = color.New(color.FgRed, color.Bold)
)

// Printf writes a plain announcement line.
func Printf(format string, args ...interface{}) { colPrint.Printf(format+"\n", args...) }

// Warningf writes a warning-colored announcement line.
func Warningf(format string, args ...interface{}) { colWarn.Printf(format+"\n", args...) }

// Errorf writes an error-colored announcement line.
func Errorf(format string, args ...interface{}) { colError.Printf(format+"\n", args...) }

// Prompt renders the operator prompt (e.g. "MAV> ") without a newline.
func Prompt(text string) { colPrompt.Print(text) }

// Reader is the blocking line-reader half of the Input task: Run reads
// lines from r until EOF and delivers each one through Lines, then
// closes Lines. It owns nothing but the scanner; the engine owns the
// single-slot mailbox it drains into.
type Reader struct {
	scanner *bufio.Scanner
	lines   chan string
	once    sync.Once
}

// NewReader wraps r (os.Stdin in production) as a line source.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		lines:   make(chan string),
	}
}

// Lines returns the channel lines are delivered on. It is closed when
// Run returns (EOF or a read error), which the engine treats as the
// input task's own termination.
func (rd *Reader) Lines() <-chan string { return rd.lines }

// Run blocks reading lines and must be driven from its own goroutine;
// it returns when the underlying reader is exhausted.
func (rd *Reader) Run() {
	defer rd.once.Do(func() { close(rd.lines) })

	for rd.scanner.Scan() {
		rd.lines <- rd.scanner.Text()
	}
}

// FormatBool is a small console helper for rendering "set" command
// output for boolean-looking settings.
func FormatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
