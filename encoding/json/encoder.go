package json

import (
	"errors"
	"io"

	"github.com/arnodel/wsjson/internal/format"
	"github.com/arnodel/wsjson/token"
)

// An Encoder is a token.Sink that outputs JSON text using the given Printer
// instance for formatting. A compact printer (negative IndentSize) produces
// JSON without any whitespace.
//
// Consecutive calls to PutRaw append to the same value, so a document can be
// written verbatim in several chunks.
type Encoder struct {
	format.Printer
	*format.Colorizer

	// One frame per open container
	stack    []encoderFrame
	afterKey bool
	inRaw    bool
	values   int
}

type encoderFrame struct {
	object bool
	empty  bool
}

var _ token.RawSink = &Encoder{}

var errUnbalanced = errors.New("unbalanced end of container")

// NewEncoder returns an Encoder writing compact JSON to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{Printer: &format.DefaultPrinter{Writer: w, IndentSize: -1}}
}

// NewIndentEncoder returns an Encoder writing JSON to w with the given
// indentation and optional colors.
func NewIndentEncoder(w io.Writer, indent int, colorizer *format.Colorizer) *Encoder {
	return &Encoder{
		Printer:   &format.DefaultPrinter{Writer: w, IndentSize: indent},
		Colorizer: colorizer,
	}
}

// Put writes tok. Errors from the underlying writer are returned as a
// *format.PrinterError.
func (e *Encoder) Put(tok token.Token) (err error) {
	defer format.CatchPrinterError(&err)
	e.inRaw = false
	switch t := tok.(type) {
	case *token.StartObject:
		e.beforeValue()
		e.PrintBytes(openObjectBytes)
		e.stack = append(e.stack, encoderFrame{object: true, empty: true})
	case *token.StartArray:
		e.beforeValue()
		e.PrintBytes(openArrayBytes)
		e.stack = append(e.stack, encoderFrame{empty: true})
	case *token.EndObject:
		return e.end(true, closeObjectBytes)
	case *token.EndArray:
		return e.end(false, closeArrayBytes)
	case *token.Scalar:
		if t.IsKey() {
			e.beforeItem()
			e.Colorizer.PrintScalar(e.Printer, t)
			if e.compact() {
				e.PrintBytes(compactKeyValueSeparatorBytes)
			} else {
				e.PrintBytes(keyValueSeparatorBytes)
			}
			e.afterKey = true
			return nil
		}
		e.beforeValue()
		e.Colorizer.PrintScalar(e.Printer, t)
	default:
		return errors.New("invalid token")
	}
	return nil
}

// PutRaw writes b verbatim as (part of) a JSON value.
func (e *Encoder) PutRaw(b []byte) (err error) {
	defer format.CatchPrinterError(&err)
	if !e.inRaw {
		e.beforeValue()
		e.inRaw = true
	}
	e.PrintBytes(b)
	return nil
}

func (e *Encoder) end(object bool, closer []byte) error {
	n := len(e.stack)
	if n == 0 || e.stack[n-1].object != object || e.afterKey {
		return errUnbalanced
	}
	top := e.stack[n-1]
	e.stack = e.stack[:n-1]
	if !top.empty {
		e.Dedent()
	}
	e.PrintBytes(closer)
	if len(e.stack) == 0 {
		e.Printer.Reset()
	}
	return nil
}

func (e *Encoder) beforeValue() {
	if e.afterKey {
		e.afterKey = false
		return
	}
	e.beforeItem()
}

func (e *Encoder) beforeItem() {
	n := len(e.stack)
	if n == 0 {
		if e.values > 0 {
			e.PrintBytes(valueSeparatorBytes)
		}
		e.values++
		return
	}
	top := &e.stack[n-1]
	if top.empty {
		top.empty = false
		e.Indent()
		return
	}
	e.PrintBytes(itemSeparatorBytes)
	e.NewLine()
}

func (e *Encoder) compact() bool {
	c, ok := e.Printer.(interface{ Compact() bool })
	return ok && c.Compact()
}

var (
	openObjectBytes               = []byte{'{'}
	closeObjectBytes              = []byte{'}'}
	openArrayBytes                = []byte{'['}
	closeArrayBytes               = []byte{']'}
	itemSeparatorBytes            = []byte{','}
	keyValueSeparatorBytes        = []byte(": ")
	compactKeyValueSeparatorBytes = []byte{':'}
	valueSeparatorBytes           = []byte{'\n'}
)
