// Package source provides random-access byte sources for JSON documents and
// a positioned, buffered reader over them.
//
// A document lives either in a file or in memory. Both are exposed through
// the Source interface so that the canonicalizer and the token stream never
// need to know where the bytes come from. A Source must contain at least one
// byte: empty documents are rejected when the source is created rather than at
// the first read.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arnodel/wsjson/errs"
)

const (
	// DefaultBufferSize is the window size used by the canonicalizer's reader.
	// Smaller windows make scanning long arrays slower, larger ones make the
	// jumps between reordered object members more expensive.
	DefaultBufferSize = 10 * 1024

	// CopyBufferSize is the default chunk size for verbatim copies.
	CopyBufferSize = 100_000
)

// A Source is a seekable document of known size.
type Source interface {
	io.ReadSeeker
	io.Closer
	Size() int64
}

// File is a Source backed by an operating system file.
type File struct {
	f    *os.File
	size int64
}

var _ Source = (*File)(nil)

// OpenFile opens the file at path for reading.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewFile(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// NewFile wraps an already open file. The File takes ownership of f and
// closes it when closed.
func NewFile(f *os.File) (*File, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	if info.Size() == 0 {
		return nil, errs.ErrEmptyInput
	}
	return &File{f: f, size: info.Size()}, nil
}

func (s *File) Read(p []byte) (int, error) {
	return s.f.Read(p)
}

func (s *File) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

func (s *File) Close() error {
	return s.f.Close()
}

func (s *File) Size() int64 {
	return s.size
}

// Name returns the name of the underlying file.
func (s *File) Name() string {
	return s.f.Name()
}

// Memory is a Source backed by a byte slice or a string.
type Memory struct {
	r interface {
		io.ReadSeeker
		Size() int64
	}
}

var _ Source = (*Memory)(nil)

// NewMemory returns a Source reading from data. The slice is not copied and
// must not be modified while the source is in use.
func NewMemory(data []byte) (*Memory, error) {
	if len(data) == 0 {
		return nil, errs.ErrEmptyInput
	}
	return &Memory{r: bytes.NewReader(data)}, nil
}

// NewString returns a Source reading from the bytes of s.
func NewString(s string) (*Memory, error) {
	if len(s) == 0 {
		return nil, errs.ErrEmptyInput
	}
	return &Memory{r: strings.NewReader(s)}, nil
}

func (s *Memory) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *Memory) Seek(offset int64, whence int) (int64, error) {
	return s.r.Seek(offset, whence)
}

// Close does nothing; memory sources hold no resources.
func (s *Memory) Close() error {
	return nil
}

func (s *Memory) Size() int64 {
	return s.r.Size()
}
