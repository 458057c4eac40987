// Package codec reads and writes compressed JSON documents.
//
// Compressed inputs cannot be read at random offsets, which the
// canonicalizer needs, so OpenSource decompresses them once into a spool (in
// memory when small, in a temporary file otherwise) and returns the spool as a
// source.Source.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/arnodel/wsjson/errs"
)

// Format is a compression format.
type Format uint8

const (
	None Format = iota
	Zstd
	S2
	LZ4
	Gzip
)

var formatNames = [...]string{
	None: "none",
	Zstd: "zstd",
	S2:   "s2",
	LZ4:  "lz4",
	Gzip: "gzip",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("unknown(%d)", f)
}

// ParseFormat returns the Format called name.
func ParseFormat(name string) (Format, error) {
	for f, n := range formatNames {
		if n == name {
			return Format(f), nil
		}
	}
	return None, fmt.Errorf("%w: unknown compression %q", errs.ErrInvalidConfig, name)
}

var (
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic   = []byte{0x1f, 0x8b}
	lz4Magic    = []byte{0x04, 0x22, 0x4d, 0x18}
	s2Magic     = []byte("\xff\x06\x00\x00S2sTwO")
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// MagicSize is the number of leading bytes Detect needs to recognize every
// format.
const MagicSize = 10

// Detect returns the format of data starting with head. JSON text never
// starts with any of the magic numbers, so anything unknown is None.
func Detect(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip
	case bytes.HasPrefix(head, lz4Magic):
		return LZ4
	case bytes.HasPrefix(head, s2Magic), bytes.HasPrefix(head, snappyMagic):
		return S2
	}
	return None
}

// NewReader returns a reader decompressing r, which is in format f.
func NewReader(r io.Reader, f Format) (io.ReadCloser, error) {
	switch f {
	case None:
		return io.NopCloser(r), nil
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return d.IOReadCloser(), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Gzip:
		z, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return z, nil
	}
	return nil, fmt.Errorf("%w: unknown compression %s", errs.ErrInvalidConfig, f)
}

// NewWriter returns a writer compressing to w in format f. Close must be
// called to flush the compressed stream; it does not close w.
func NewWriter(w io.Writer, f Format) (io.WriteCloser, error) {
	switch f {
	case None:
		return nopWriteCloser{w}, nil
	case Zstd:
		e, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return e, nil
	case S2:
		return s2.NewWriter(w), nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case Gzip:
		return gzip.NewWriter(w), nil
	}
	return nil, fmt.Errorf("%w: unknown compression %s", errs.ErrInvalidConfig, f)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// readHead reads up to MagicSize bytes from r and returns them along with a
// reader giving the whole stream again.
func readHead(r io.Reader) ([]byte, io.Reader, error) {
	head := make([]byte, MagicSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, nil, err
	}
	head = head[:n]
	return head, io.MultiReader(bytes.NewReader(head), r), nil
}
