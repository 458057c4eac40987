// Package scanner reads bytes from an io.Reader with one byte of look back,
// keeping track of the line, column and byte offset of the current position
// and recording token bytes that may span several buffer refills.
package scanner

import (
	"io"
	"slices"
)

const (
	lookBack       = 1
	maxEmptyReads  = 100
	defaultBufSize = 8192
)

// EOF is returned by Read and Peek at the end of the input. 0xFF never
// appears in UTF-8 text.
const EOF byte = 0xFF

// Pos is a 0-based line and column. Columns count characters, not bytes.
type Pos struct {
	Line int
	Col  int
}

// advance returns the position after byte b.
func (p Pos) advance(b byte) Pos {
	switch {
	case b == '\n':
		return Pos{Line: p.Line + 1}
	case b < 0xC0:
		// Last byte of a UTF-8 sequence
		p.Col++
	}
	return p
}

// A Scanner reads bytes one at a time. While a token is being recorded
// (between StartToken and EndToken) the bytes read are kept, even when they
// no longer fit in the buffer.
type Scanner struct {
	r   io.Reader
	buf []byte

	// buf[pos:end] is unread, 0 <= pos <= end <= len(buf)
	pos, end int

	// Input offset of buf[0]
	base int64

	at   Pos
	prev Pos // Line < 0 when Back is not allowed

	// Start in buf of the token being recorded, -1 if none
	mark int

	// Token bytes already dropped from buf
	spill []byte

	err error

	// EOFs returned and not yet taken back
	eofs int
}

// NewScanner returns a Scanner with the default buffer size.
func NewScanner(r io.Reader) *Scanner {
	return NewScannerSize(r, defaultBufSize)
}

// NewScannerSize returns a Scanner with a buffer of size bytes. The size must
// be greater than the one byte of look back.
func NewScannerSize(r io.Reader, size int) *Scanner {
	return &Scanner{
		r:    r,
		buf:  make([]byte, size),
		mark: -1,
		prev: Pos{Line: -1},
	}
}

// CurrentPos returns the position of the next byte.
func (s *Scanner) CurrentPos() Pos {
	return s.at
}

// Offset returns the byte offset in the input of the current position.
func (s *Scanner) Offset() int64 {
	return s.base + int64(s.pos)
}

// Read consumes and returns the next byte, or EOF at the end of the input.
func (s *Scanner) Read() (byte, error) {
	if !s.more() {
		if s.err == io.EOF {
			s.eofs++
			return EOF, nil
		}
		return 0, s.err
	}
	b := s.buf[s.pos]
	s.pos++
	s.prev = s.at
	s.at = s.at.advance(b)
	return b, nil
}

// Peek returns the next byte without consuming it.
func (s *Scanner) Peek() (byte, error) {
	if !s.more() {
		return s.errOrEOF()
	}
	return s.buf[s.pos], nil
}

// Back undoes the last Read. It can only be called once in a row, and not
// past the start of the token being recorded.
func (s *Scanner) Back() {
	if s.pos == 0 || s.pos <= s.mark {
		panic("cannot go back from start")
	}
	if s.prev.Line < 0 {
		panic("cannot go back twice")
	}
	if s.eofs > 0 {
		s.eofs--
		return
	}
	s.pos--
	s.at = s.prev
	s.prev.Line = -1
}

// SkipSpaceAndPeek consumes JSON whitespace and returns the next byte
// without consuming it.
func (s *Scanner) SkipSpaceAndPeek() (byte, error) {
	for s.more() {
		for s.pos < s.end {
			b := s.buf[s.pos]
			switch b {
			case ' ', '\t', '\r', '\n':
				s.at = s.at.advance(b)
				s.pos++
			default:
				return b, nil
			}
		}
	}
	return s.errOrEOF()
}

// StartToken starts recording the bytes read and returns the current
// position.
func (s *Scanner) StartToken() Pos {
	if s.mark >= 0 {
		panic("already in record mode")
	}
	s.mark = s.pos
	return s.at
}

// EndToken stops recording and returns the bytes read since StartToken.
func (s *Scanner) EndToken() []byte {
	if s.mark < 0 {
		panic("not in record mode")
	}
	tail := s.buf[s.mark:s.pos]
	s.mark = -1
	if s.spill == nil {
		return slices.Clone(tail)
	}
	tok := append(s.spill, tail...)
	s.spill = nil
	return tok
}

func (s *Scanner) errOrEOF() (byte, error) {
	if s.err == io.EOF {
		return EOF, nil
	}
	return 0, s.err
}

// more makes sure there is an unread byte in the buffer if the input has
// one.
func (s *Scanner) more() bool {
	if s.pos < s.end {
		return true
	}
	if s.err != nil {
		return false
	}
	if s.end == len(s.buf) {
		s.compact()
	}
	for i := 0; i < maxEmptyReads; i++ {
		n, err := s.r.Read(s.buf[s.end:])
		s.end += n
		if err != nil {
			s.err = err
			break
		}
		if n > 0 {
			break
		}
	}
	if s.pos == s.end && s.err == nil {
		s.err = io.ErrNoProgress
	}
	return s.pos < s.end
}

// compact makes room at the end of a full buffer. It keeps the token being
// recorded when it does not start at the beginning of the buffer, otherwise
// one byte of look back, moving dropped token bytes to the spill.
func (s *Scanner) compact() {
	drop := s.pos - lookBack
	switch {
	case s.mark > 0:
		drop = s.mark
		s.mark = 0
	case s.mark == 0 && drop > 0:
		s.spill = append(s.spill, s.buf[:drop]...)
	}
	if drop <= 0 {
		return
	}
	s.base += int64(drop)
	s.end = copy(s.buf, s.buf[drop:s.end])
	s.pos -= drop
}
