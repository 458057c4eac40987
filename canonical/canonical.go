// Package canonical rewrites JSON documents with the members of every object
// sorted by key.
//
// The canonicalizer never builds the document in memory. For each object it
// scans the members once, keeping only the key and the byte offsets of each
// member, then writes the members back in key order by seeking to their
// offsets in the source. Everything outside keys (values, whitespace inside
// values, number formats, string escapes) is copied byte for byte, so
// canonicalizing a canonical document returns it unchanged.
package canonical

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/source"
)

// DefaultOutputBufferSize is the default size of the output buffer.
const DefaultOutputBufferSize = 100_000

// DuplicatePolicy says what to do with two members of an object that have the
// same key.
type DuplicatePolicy int

const (
	// DuplicateError fails with a *errs.DuplicateKeyError.
	DuplicateError DuplicatePolicy = iota
	// DuplicateSkip keeps the member that comes first in the document.
	DuplicateSkip
)

// KeyStorage selects how keys are held and compared while sorting.
type KeyStorage int

const (
	// KeyBytes compares keys as raw UTF-8 bytes.
	KeyBytes KeyStorage = iota
	// KeyText compares keys as text in UTF-16 code unit order. Invalid UTF-8
	// in keys is replaced with U+FFFD before comparison.
	KeyText
)

func (k KeyStorage) String() string {
	if k == KeyText {
		return "text"
	}
	return "bytes"
}

// Options configure a Canonicalizer.
type Options struct {
	Duplicates DuplicatePolicy
	Keys       KeyStorage

	// Upper bound on the estimated memory used by the keys held at once,
	// including the keys of all enclosing objects. Zero or negative means no
	// limit.
	MaxKeyMemory int64

	// Size of the source read window.
	BufferSize int

	// Size of the output buffer.
	OutputBufferSize int

	// Receives a summary of each pass at debug level. May be nil.
	Logger *slog.Logger
}

// DefaultOptions returns the options used by Canonicalize when none are given.
func DefaultOptions() Options {
	return Options{
		BufferSize:       source.DefaultBufferSize,
		OutputBufferSize: DefaultOutputBufferSize,
	}
}

// A Canonicalizer sorts the keys of JSON documents. It holds no state between
// calls, so it can be reused and shared.
type Canonicalizer struct {
	opts Options
}

// New validates opts and returns a Canonicalizer using them.
func New(opts Options) (*Canonicalizer, error) {
	if opts.BufferSize < 1 {
		return nil, fmt.Errorf("%w: read buffer of %d bytes", errs.ErrInvalidBufferSize, opts.BufferSize)
	}
	if opts.OutputBufferSize < 1 {
		return nil, fmt.Errorf("%w: output buffer of %d bytes", errs.ErrInvalidBufferSize, opts.OutputBufferSize)
	}
	if opts.Duplicates != DuplicateError && opts.Duplicates != DuplicateSkip {
		return nil, fmt.Errorf("%w: duplicate policy %d", errs.ErrInvalidConfig, opts.Duplicates)
	}
	if opts.Keys != KeyBytes && opts.Keys != KeyText {
		return nil, fmt.Errorf("%w: key storage %d", errs.ErrInvalidConfig, opts.Keys)
	}
	return &Canonicalizer{opts: opts}, nil
}

// Options returns the options of c.
func (c *Canonicalizer) Options() Options {
	return c.opts
}

// Canonicalize writes the canonical form of src to w. The source is read
// from offset 0 and is not closed. On error, part of the output may already
// have been written.
func (c *Canonicalizer) Canonicalize(src source.Source, w io.Writer) error {
	r, err := source.NewReader(src, c.opts.BufferSize)
	if err != nil {
		return err
	}
	cw := &countingWriter{w: w}
	p := &pass{
		opts: &c.opts,
		r:    r,
		out:  bufio.NewWriterSize(cw, c.opts.OutputBufferSize),
	}
	if err := p.write(0, -1, 0); err != nil {
		return err
	}
	if err := p.out.Flush(); err != nil {
		return err
	}
	if c.opts.Logger != nil {
		c.opts.Logger.Debug("canonicalized document",
			"size", src.Size(),
			"written", cw.n,
			"objects", p.objects,
			"skipped", p.skipped,
			"loads", r.Loads(),
			"keys", c.opts.Keys.String(),
		)
	}
	return nil
}

// Canonicalize writes the canonical form of src to w using opts.
func Canonicalize(src source.Source, w io.Writer, opts Options) error {
	c, err := New(opts)
	if err != nil {
		return err
	}
	return c.Canonicalize(src, w)
}

// Bytes returns the canonical form of data.
func Bytes(data []byte, opts Options) ([]byte, error) {
	src, err := source.NewMemory(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(data))
	if err := Canonicalize(src, &buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
