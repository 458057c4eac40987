// Package format holds the output helpers shared by the encoders.
package format

import (
	"fmt"
	"io"
)

// A Printer writes structured text such as indented JSON.
//
//   - Indent and Dedent change the indentation level and start a new line
//   - NewLine starts a new line at the current level
//   - PrintBytes writes bytes as they are
//   - Reset returns to level 0 before the next top level value
//
// Write errors are not returned: a Printer panics with a *PrinterError and
// the caller turns the panic back into an error with a deferred
// CatchPrinterError:
//
//	func encode(p Printer) (err error) {
//	    defer CatchPrinterError(&err)
//	    ...
//	}
type Printer interface {
	Indent()
	Dedent()
	NewLine()
	PrintBytes([]byte)
	Reset()
}

// CatchPrinterError stores in *err the *PrinterError a Printer panicked
// with. Other panics are passed on.
func CatchPrinterError(err *error) {
	r := recover()
	if r == nil {
		return
	}
	perr, ok := r.(*PrinterError)
	if !ok {
		panic(r)
	}
	*err = perr
}

// PrinterError wraps the error a Printer got from its writer.
type PrinterError struct {
	Err error
}

func (e *PrinterError) Error() string {
	return fmt.Sprintf("printer error: %s", e.Err)
}

func (e *PrinterError) Unwrap() error {
	return e.Err
}

// Flusher is implemented by buffered writers such as *bufio.Writer.
type Flusher interface {
	Flush() error
}

// DefaultPrinter implements a Printer which uses an io.Writer to send output,
// using IndentSize spaces for each indent level.
// If IndentSize is negative, then NewLine() does nothing so all the output
// is on one single line.
// If IndentSize is 0, then there is no indentation but there are still new
// lines.
// If Flusher is set, it is flushed after each new line so that a terminal
// shows output early.
type DefaultPrinter struct {
	io.Writer
	IndentSize  int
	Flusher     Flusher
	indentLevel int
}

var _ Printer = &DefaultPrinter{}

var (
	newLineBytes = []byte{'\n'}
	spaceBytes   = []byte("                                ")
)

// NewLine outputs '\n' followed by a number of spaces corresponding to the
// current indentation level.
func (p *DefaultPrinter) NewLine() {
	if p.IndentSize < 0 {
		return
	}
	p.PrintBytes(newLineBytes)
	if p.Flusher != nil {
		if err := p.Flusher.Flush(); err != nil {
			panic(wrapError(err))
		}
	}
	for i := p.IndentSize * p.indentLevel; i > 0; i -= len(spaceBytes) {
		p.PrintBytes(spaceBytes[:min(i, len(spaceBytes))])
	}
}

// Indent has the effect of incrementing the indentation level and calls NewLine()
func (p *DefaultPrinter) Indent() {
	p.indentLevel++
	p.NewLine()
}

// Dedent has the effect of decrementing the indentation level and calls NewLine()
func (p *DefaultPrinter) Dedent() {
	p.indentLevel--
	p.NewLine()
}

// PrintBytes sends the gives bytes verbatim to the printer's writer.
func (p *DefaultPrinter) PrintBytes(b []byte) {
	_, err := p.Write(b)
	if err != nil {
		panic(wrapError(err))
	}
}

func (p *DefaultPrinter) Reset() {
	p.indentLevel = 0
}

// Compact reports whether the printer puts everything on one line.
func (p *DefaultPrinter) Compact() bool {
	return p.IndentSize < 0
}

func wrapError(err error) *PrinterError {
	return &PrinterError{Err: err}
}
