package main

import (
	"bufio"
	"fmt"
	"io"

	wsjson "github.com/arnodel/wsjson/encoding/json"
	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/internal/format"
	"github.com/arnodel/wsjson/source"
	"github.com/arnodel/wsjson/stream"
	"github.com/arnodel/wsjson/tree"
)

// openInput returns the token stream input for the document called name.
// Uncompressed JSON files are streamed from disk; anything else is read into
// memory first. inFormat is "json" or "cbor".
func (a *app) openInput(name, inFormat string) (stream.Input, error) {
	if inFormat != "json" && inFormat != "cbor" {
		return nil, fmt.Errorf("%w: input format %q (use json or cbor)", errs.ErrInvalidConfig, inFormat)
	}
	src, err := a.openSource(name)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if inFormat == "cbor" {
		v, err := tree.ReadCBOR(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return stream.Tree{Value: v}, nil
	}
	if f, ok := src.(*source.File); ok && name != "-" {
		return stream.File(f.Name()), nil
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return stream.Bytes(data), nil
}

// output buffers writes to stdout, flushing at each new line on a terminal.
type output struct {
	*bufio.Writer
	terminal bool
}

func (a *app) newOutput() *output {
	return &output{Writer: bufio.NewWriter(a.stdout), terminal: a.terminal}
}

// encoder returns a JSON encoder writing to o.
func (o *output) encoder(indent int, colorizer *format.Colorizer) *wsjson.Encoder {
	printer := &format.DefaultPrinter{Writer: o, IndentSize: indent}
	if o.terminal {
		printer.Flusher = o
	}
	return &wsjson.Encoder{Printer: printer, Colorizer: colorizer}
}
