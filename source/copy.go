package source

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/arnodel/wsjson/errs"
)

// CopyChunks copies r to dst in writes of at most chunk bytes. A chunk never
// ends inside a multi-byte UTF-8 sequence: the incomplete tail is held back and
// written at the start of the next chunk. Invalid UTF-8 is copied as is.
func CopyChunks(dst io.Writer, r io.Reader, chunk int) (int64, error) {
	if chunk < utf8.UTFMax {
		return 0, fmt.Errorf("%w: chunk of %d bytes cannot hold a character", errs.ErrInvalidBufferSize, chunk)
	}
	buf := make([]byte, chunk)
	var written int64
	carry := 0
	for {
		n, err := io.ReadFull(r, buf[carry:])
		n += carry
		eof := err == io.EOF || err == io.ErrUnexpectedEOF
		if err != nil && !eof {
			return written, err
		}
		cut := n
		if !eof {
			cut = completePrefix(buf[:n])
		}
		if cut > 0 {
			w, err := dst.Write(buf[:cut])
			written += int64(w)
			if err != nil {
				return written, err
			}
		}
		if eof {
			return written, nil
		}
		carry = copy(buf, buf[cut:n])
	}
}

// completePrefix returns the length of the longest prefix of b which does not
// end inside a multi-byte UTF-8 sequence.
func completePrefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		c := b[i]
		if c < utf8.RuneSelf {
			return len(b)
		}
		if utf8.RuneStart(c) {
			if utf8.FullRune(b[i:]) || i == 0 {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}
