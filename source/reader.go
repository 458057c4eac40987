package source

import (
	"fmt"
	"io"

	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/internal/debug"
)

const maxConsecutiveEmptyReads = 100

// Reader is a buffered reader over a Source that tracks a global byte offset
// and can be repositioned anywhere in the source.
//
// The reader keeps a window of the source in memory. Repositioning inside
// the window only moves the cursor; repositioning outside it drops the window
// and the next read reloads from the new offset. The canonicalizer relies on
// this when it alternates between scanning an object and copying its
// reordered members, which are usually close to each other.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	src Source
	buf []byte

	// Offset in the source of buf[0]
	bufStart int64

	// Current position in buf
	// 0 <= pos <= n
	pos int

	// Number of bytes loaded in buf
	// 0 <= n <= len(buf)
	n int

	// Number of times the window was reloaded from the source.
	loads int
}

var (
	_ io.Reader     = (*Reader)(nil)
	_ io.ByteReader = (*Reader)(nil)
)

// NewReader returns a Reader over src with a window of bufSize bytes,
// positioned at offset 0.
func NewReader(src Source, bufSize int) (*Reader, error) {
	if bufSize < 1 {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidBufferSize, bufSize)
	}
	return &Reader{src: src, buf: make([]byte, bufSize)}, nil
}

// SetPosition moves the reader to the given offset. No I/O happens here: if
// the offset is inside the current window the cursor is moved, otherwise the
// window is dropped and reloaded by the next read.
func (r *Reader) SetPosition(offset int64) {
	if offset >= r.bufStart && offset < r.bufStart+int64(r.n) {
		r.pos = int(offset - r.bufStart)
		return
	}
	debug.Printf("source: dropping window [%d, %d) for offset %d", r.bufStart, r.bufStart+int64(r.n), offset)
	r.bufStart = offset
	r.pos = 0
	r.n = 0
}

// Offset returns the offset of the next byte to be read.
func (r *Reader) Offset() int64 {
	return r.bufStart + int64(r.pos)
}

// Loads returns how many times the window has been loaded from the source.
func (r *Reader) Loads() int {
	return r.loads
}

// ReadByte returns the next byte, or io.EOF at the end of the source.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= r.n {
		if err := r.load(); err != nil {
			return 0, err
		}
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// Read reads from the current offset, at most up to the end of the window.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.pos >= r.n {
		if err := r.load(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.buf[r.pos:r.n])
	r.pos += n
	return n, nil
}

// load fills the window starting at the current offset. The underlying
// source may return short reads, so it keeps reading until the window is full
// or the source is exhausted.
func (r *Reader) load() error {
	r.bufStart += int64(r.pos)
	r.pos = 0
	r.n = 0
	if _, err := r.src.Seek(r.bufStart, io.SeekStart); err != nil {
		return fmt.Errorf("seek to offset %d: %w", r.bufStart, err)
	}
	empty := 0
	for r.n < len(r.buf) {
		k, err := r.src.Read(r.buf[r.n:])
		r.n += k
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read at offset %d: %w", r.bufStart+int64(r.n), err)
		}
		if k > 0 {
			empty = 0
			continue
		}
		empty++
		if empty >= maxConsecutiveEmptyReads {
			return io.ErrNoProgress
		}
	}
	if r.n == 0 {
		return io.EOF
	}
	r.loads++
	debug.Printf("source: loaded %d bytes at offset %d", r.n, r.bufStart)
	return nil
}
